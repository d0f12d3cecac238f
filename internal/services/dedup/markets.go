package dedup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// marketFile is the YAML shape for the market alias table:
// market label -> list of location aliases
type marketFile struct {
	Markets map[string][]string `yaml:"markets"`
}

// defaultMarketAliases maps common location spellings to a market
// label. Kept deliberately small; deployments extend it via YAML.
var defaultMarketAliases = map[string][]string{
	"dallas":      {"dallas", "dallas tx", "dallas, tx", "dfw", "fort worth", "fort worth tx", "fort worth, tx"},
	"houston":     {"houston", "houston tx", "houston, tx"},
	"atlanta":     {"atlanta", "atlanta ga", "atlanta, ga"},
	"chicago":     {"chicago", "chicago il", "chicago, il"},
	"phoenix":     {"phoenix", "phoenix az", "phoenix, az"},
	"los angeles": {"los angeles", "los angeles ca", "los angeles, ca", "la", "inland empire"},
}

// MarketTable resolves raw location text to a market label.
// Unresolved locations return ok=false; later dedup passes skip those
// postings rather than guessing.
type MarketTable struct {
	aliases map[string]string
}

// NewMarketTable builds a resolver from market -> aliases
func NewMarketTable(markets map[string][]string) *MarketTable {
	t := &MarketTable{aliases: make(map[string]string)}
	for market, aliases := range markets {
		m := normalizeField(market)
		t.aliases[m] = m
		for _, alias := range aliases {
			a := normalizeField(alias)
			if a != "" {
				t.aliases[a] = m
			}
		}
	}
	return t
}

// DefaultMarketTable returns the built-in alias table
func DefaultMarketTable() *MarketTable {
	return NewMarketTable(defaultMarketAliases)
}

// LoadMarketTable reads a market alias table from a YAML file, merged
// over the defaults. An empty path returns the defaults.
func LoadMarketTable(path string) (*MarketTable, error) {
	if path == "" {
		return DefaultMarketTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markets file %s: %w", path, err)
	}

	var file marketFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse markets file %s: %w", path, err)
	}

	merged := make(map[string][]string, len(defaultMarketAliases)+len(file.Markets))
	for market, aliases := range defaultMarketAliases {
		merged[market] = aliases
	}
	for market, aliases := range file.Markets {
		merged[market] = append(merged[market], aliases...)
	}
	return NewMarketTable(merged), nil
}

// Resolve maps location text to a market label
func (t *MarketTable) Resolve(location string) (string, bool) {
	loc := normalizeField(location)
	if loc == "" {
		return "", false
	}

	if market, ok := t.aliases[loc]; ok {
		return market, true
	}

	// Drop a trailing zip code and retry ("dallas tx 75201" -> "dallas tx")
	fields := strings.Fields(loc)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if len(last) == 5 && strings.Trim(last, "0123456789") == "" {
			if market, ok := t.aliases[strings.Join(fields[:len(fields)-1], " ")]; ok {
				return market, true
			}
		}
	}

	return "", false
}
