package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/venari/internal/models"
)

func TestParseResponse_ValidJSON(t *testing.T) {
	text := `{"tier": "good", "reason": "strong pay", "summary": "Regional run with weekly home time.", "route_tags": ["regional"], "requirement_tags": ["2 years experience"]}`

	resp, err := parseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "good", resp.Tier)
	assert.Equal(t, "strong pay", resp.Reason)
	assert.Equal(t, []string{"regional"}, resp.RouteTags)
}

func TestParseResponse_StripsCodeFences(t *testing.T) {
	text := "```json\n{\"tier\": \"bad\", \"reason\": \"lease purchase scheme\", \"summary\": \"Lease-purchase arrangement with no guaranteed pay.\"}\n```"

	resp, err := parseResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "bad", resp.Tier)
}

func TestParseResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "this posting looks good to me"},
		{"missing tier", `{"reason": "strong pay", "summary": "Looks fine."}`},
		{"missing reason", `{"tier": "good", "summary": "Looks fine."}`},
		{"missing summary", `{"tier": "good", "reason": "solid pay"}`},
		{"unknown tier", `{"tier": "amazing", "reason": "x", "summary": "Looks fine."}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestClassifierResponse_ToResult(t *testing.T) {
	resp := &classifierResponse{
		Tier:      "so_so",
		Reason:    "vague pay",
		Summary:   "OTR position with unclear compensation.",
		RouteTags: []string{"otr"},
	}

	result := resp.toResult("fp1")
	assert.Equal(t, models.Fingerprint("fp1"), result.Fingerprint)
	assert.Equal(t, models.TierSoSo, result.Tier)
	assert.Equal(t, models.ProvenanceFresh, result.Provenance)
}

func TestBuildPrompt_IncludesPostingFields(t *testing.T) {
	p := models.Posting{
		Title:       "CDL-A OTR Driver",
		Company:     "Acme Freight",
		Location:    "Dallas, TX",
		Source:      "jobboard",
		Description: "Drive dry van freight across 48 states.",
	}

	prompt := buildPrompt(p)
	assert.Contains(t, prompt, "CDL-A OTR Driver")
	assert.Contains(t, prompt, "Acme Freight")
	assert.Contains(t, prompt, "Dallas, TX")
	assert.Contains(t, prompt, "jobboard")
	assert.Contains(t, prompt, "dry van freight")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFences(tt.input))
		})
	}
}
