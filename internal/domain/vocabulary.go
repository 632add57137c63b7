package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// ErrEmptyVocabulary is returned when a vocabulary has no hazard terms.
var ErrEmptyVocabulary = errors.New("vocabulary has no hazard terms")

// Vocabulary holds the keyword sets used to classify and score report text.
// Terms are stored case-folded and non-blank; build one with NewVocabulary or
// ParseVocabulary. The zero value matches nothing.
type Vocabulary struct {
	hazard   []string
	urgent   []string
	advisory []string
}

type vocabularyFile struct {
	Hazard   []string `yaml:"hazard"`
	Urgent   []string `yaml:"urgent"`
	Advisory []string `yaml:"advisory"`
}

// NewVocabulary folds, trims, and de-duplicates the given term sets.
func NewVocabulary(hazard, urgent, advisory []string) (Vocabulary, error) {
	v := Vocabulary{
		hazard:   normalizeTerms(hazard),
		urgent:   normalizeTerms(urgent),
		advisory: normalizeTerms(advisory),
	}
	if len(v.hazard) == 0 {
		return Vocabulary{}, ErrEmptyVocabulary
	}
	return v, nil
}

// ParseVocabulary decodes a YAML document with hazard, urgent, and advisory lists.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var raw vocabularyFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	return NewVocabulary(raw.Hazard, raw.Urgent, raw.Advisory)
}

// LoadVocabularyFile reads and parses a vocabulary YAML file.
func LoadVocabularyFile(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// DefaultVocabulary returns the built-in English hazard vocabulary.
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
}

// TermCounts returns the number of hazard, urgent, and advisory terms.
func (v Vocabulary) TermCounts() (hazard, urgent, advisory int) {
	return len(v.hazard), len(v.urgent), len(v.advisory)
}

// IsHazard reports whether text mentions any hazard term.
func (v Vocabulary) IsHazard(text string) bool {
	if text == "" {
		return false
	}
	return containsAny(fold(text), v.hazard)
}

// Severity scores text by the first tier with a matching term.
func (v Vocabulary) Severity(text string) Severity {
	folded := fold(text)
	if containsAny(folded, v.urgent) {
		return SeverityHigh
	}
	if containsAny(folded, v.advisory) {
		return SeverityMedium
	}
	return SeverityLow
}

func containsAny(folded string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}

// fold applies Unicode case folding. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = fold(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
