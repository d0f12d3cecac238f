package classifier

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// NewClassifier creates the configured AI classifier provider
func NewClassifier(config *common.ClassifierConfig, logger arbor.ILogger) (interfaces.Classifier, error) {
	switch config.Provider {
	case common.ClassifierProviderClaude, "":
		logger.Info().
			Str("provider", "claude").
			Str("model", config.Claude.Model).
			Msg("Creating Claude classifier")
		return NewClaudeClassifier(&config.Claude, logger)

	case common.ClassifierProviderGemini:
		logger.Info().
			Str("provider", "gemini").
			Str("model", config.Gemini.Model).
			Msg("Creating Gemini classifier")
		return NewGeminiClassifier(&config.Gemini, logger)

	default:
		return nil, fmt.Errorf("unknown classifier provider: %s", config.Provider)
	}
}
