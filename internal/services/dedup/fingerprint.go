package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// normalizeField lowercases, trims and collapses internal whitespace so
// cosmetic differences never produce distinct fingerprints
func normalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint derives the content identity of a posting from its
// normalized company, location and title. Deterministic: the same
// posting content always yields the same fingerprint, across processes
// and restarts.
func Fingerprint(p models.Posting) models.Fingerprint {
	key := normalizeField(p.Company) + "|" + normalizeField(p.Location) + "|" + normalizeField(p.Title)
	sum := sha256.Sum256([]byte(key))
	return models.Fingerprint(hex.EncodeToString(sum[:]))
}
