package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/venari/internal/models"
)

func TestFingerprint_Deterministic(t *testing.T) {
	p := models.Posting{
		Title:    "CDL-A OTR Driver",
		Company:  "Acme Freight",
		Location: "Dallas, TX",
	}

	first := Fingerprint(p)
	second := Fingerprint(p)

	assert.Equal(t, first, second)
	assert.Len(t, string(first), 64)
}

func TestFingerprint_NormalizesWhitespaceAndCase(t *testing.T) {
	a := models.Posting{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"}
	b := models.Posting{Title: "  cdl-a   otr DRIVER ", Company: "ACME  freight", Location: "dallas,  tx"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_FieldOrderMatters(t *testing.T) {
	// Company and title swapped must not collide
	a := models.Posting{Title: "driver", Company: "acme", Location: "dallas"}
	b := models.Posting{Title: "acme", Company: "driver", Location: "dallas"}

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_DescriptionIgnored(t *testing.T) {
	a := models.Posting{Title: "driver", Company: "acme", Location: "dallas", Description: "long text"}
	b := models.Posting{Title: "driver", Company: "acme", Location: "dallas", Description: "different text"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "ACME Freight", "acme freight"},
		{"collapse spaces", "acme   freight", "acme freight"},
		{"trim", "  acme freight  ", "acme freight"},
		{"tabs and newlines", "acme\tfreight\n", "acme freight"},
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeField(tt.input))
		})
	}
}
