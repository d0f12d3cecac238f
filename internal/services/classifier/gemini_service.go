package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"google.golang.org/genai"
)

// GeminiClassifier implements the Classifier interface using the
// Google Gemini API
type GeminiClassifier struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiClassifier creates a Gemini-backed classifier
func NewGeminiClassifier(geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiClassifier, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for Gemini classifier (set via GEMINI_API_KEY, VENARI_GEMINI_API_KEY, or classifier.gemini.api_key in config)")
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	service := &GeminiClassifier{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Float32("temperature", geminiConfig.Temperature).
		Msg("Gemini classifier initialized")

	return service, nil
}

// Name returns the provider name for logging
func (s *GeminiClassifier) Name() string {
	return "gemini"
}

// Classify produces a verdict for one posting. The returned result
// always carries the caller-supplied fingerprint.
func (s *GeminiClassifier) Classify(ctx context.Context, item interfaces.ClassifyItem) (*models.ClassificationResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(item.Posting), genai.RoleUser),
	}

	generateConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(s.config.Temperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	startTime := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, generateConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Gemini API")
	}

	parsed, err := parseResponse(text.String())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("fingerprint", string(item.Fingerprint)).
		Str("tier", parsed.Tier).
		Dur("duration", time.Since(startTime)).
		Msg("Posting classified")

	return parsed.toResult(item.Fingerprint), nil
}
