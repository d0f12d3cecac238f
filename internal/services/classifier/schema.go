package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/venari/internal/models"
)

// classifierResponse is the schema-constrained contract with the AI
// provider. Every response must carry these fields; anything less is a
// parse error and the item falls back to an error-tier result.
type classifierResponse struct {
	Tier         string   `json:"tier" validate:"required,oneof=good so_so bad"`
	Reason       string   `json:"reason" validate:"required"`
	Summary      string   `json:"summary" validate:"required"`
	RouteTags    []string `json:"route_tags"`
	Requirements []string `json:"requirement_tags"`
}

var responseValidator = validator.New()

// systemPrompt fixes the output contract for both providers
const systemPrompt = `You are a job posting screener for experienced CDL truck drivers.
Classify the posting into exactly one tier:
- "good": solid pay, clear route type, reasonable requirements
- "so_so": acceptable but with drawbacks (vague pay, high minimum experience)
- "bad": owner-operator only, lease-purchase schemes, missing essentials

Respond with ONLY a JSON object, no prose, in this exact shape:
{"tier": "good|so_so|bad", "reason": "<one short sentence>", "summary": "<2-3 sentence narrative>", "route_tags": ["otr"|"regional"|"local", ...], "requirement_tags": ["<requirement>", ...]}`

// buildPrompt renders one posting for classification
func buildPrompt(p models.Posting) string {
	var b strings.Builder
	b.WriteString("Classify this job posting.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Company: %s\n", p.Company)
	fmt.Fprintf(&b, "Location: %s\n", p.Location)
	if p.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", p.Source)
	}
	b.WriteString("\nDescription:\n")
	b.WriteString(p.Description)
	return b.String()
}

// stripCodeFences removes markdown code fences providers sometimes wrap
// around JSON despite instructions
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

// parseResponse decodes and validates a provider response.
// A missing required field fails only the item being parsed, never the
// whole batch.
func parseResponse(text string) (*classifierResponse, error) {
	cleaned := stripCodeFences(text)

	var resp classifierResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("classifier response is not valid JSON: %w", err)
	}

	if err := responseValidator.Struct(&resp); err != nil {
		return nil, fmt.Errorf("classifier response missing required fields: %w", err)
	}

	return &resp, nil
}

// toResult converts a validated response into a classification result
// carrying the caller-supplied fingerprint
func (r *classifierResponse) toResult(fp models.Fingerprint) *models.ClassificationResult {
	return &models.ClassificationResult{
		Fingerprint:  fp,
		Tier:         models.Tier(r.Tier),
		Reason:       r.Reason,
		Summary:      r.Summary,
		RouteTags:    r.RouteTags,
		Requirements: r.Requirements,
		Provenance:   models.ProvenanceFresh,
	}
}
