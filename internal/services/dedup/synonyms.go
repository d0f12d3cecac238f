package dedup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// synonymFile is the YAML shape for title synonym groups.
// Each group lists phrases that mean the same thing in a job title;
// the first phrase is the canonical form.
type synonymFile struct {
	Groups [][]string `yaml:"groups"`
}

// defaultSynonymGroups covers the phrasing variants that show up
// constantly in scraped driving-job titles
var defaultSynonymGroups = [][]string{
	{"cdl a", "cdl-a", "class a", "class a cdl"},
	{"cdl b", "cdl-b", "class b", "class b cdl"},
	{"otr", "over the road", "over-the-road"},
	{"truck driver", "tractor trailer driver", "semi driver"},
	{"experienced", "experience required"},
	{"entry level", "no experience", "no experience necessary", "will train"},
	{"owner operator", "owner-operator", "lease operator"},
}

// SynonymTable folds known phrase variants in a title to a canonical
// form so pass 3 can match titles that differ only in phrasing
type SynonymTable struct {
	// canonical maps each lowercased variant phrase to its group's
	// canonical phrase
	canonical map[string]string
	// phrases ordered longest first so multi-word variants win over
	// their substrings
	phrases []string
}

// NewSynonymTable builds a table from groups of equivalent phrases
func NewSynonymTable(groups [][]string) *SynonymTable {
	t := &SynonymTable{canonical: make(map[string]string)}

	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		canon := normalizeField(group[0])
		for _, phrase := range group {
			p := normalizeField(phrase)
			if p == "" {
				continue
			}
			t.canonical[p] = canon
			t.phrases = append(t.phrases, p)
		}
	}

	// Longest phrases first
	for i := 0; i < len(t.phrases); i++ {
		for j := i + 1; j < len(t.phrases); j++ {
			if len(t.phrases[j]) > len(t.phrases[i]) {
				t.phrases[i], t.phrases[j] = t.phrases[j], t.phrases[i]
			}
		}
	}

	return t
}

// DefaultSynonymTable returns the built-in synonym groups
func DefaultSynonymTable() *SynonymTable {
	return NewSynonymTable(defaultSynonymGroups)
}

// LoadSynonymTable reads synonym groups from a YAML file, merging them
// over the built-in defaults. An empty path returns the defaults.
func LoadSynonymTable(path string) (*SynonymTable, error) {
	if path == "" {
		return DefaultSynonymTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonyms file %s: %w", path, err)
	}

	var file synonymFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file %s: %w", path, err)
	}

	groups := append([][]string{}, defaultSynonymGroups...)
	groups = append(groups, file.Groups...)
	return NewSynonymTable(groups), nil
}

// Fold replaces every known variant phrase in the text with its
// canonical form. Input is expected to be normalized lowercase.
func (t *SynonymTable) Fold(text string) string {
	for _, phrase := range t.phrases {
		canon := t.canonical[phrase]
		if phrase == canon {
			continue
		}
		text = strings.ReplaceAll(text, phrase, canon)
	}
	return normalizeField(text)
}
