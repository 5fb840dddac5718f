package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

//go:embed vocabulary.json
var defaultVocabulary []byte

// VocabularyFood maps a known food substring to its default unit.
type VocabularyFood struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// QuantityCue lists the digit and word forms that mean Value.
type QuantityCue struct {
	Value float64  `json:"value"`
	Cues  []string `json:"cues"`
}

// Vocabulary is the locale table used by the keyword fallback parser.
// Order matters in both lists: foods come out in table order and the
// first matching quantity cue wins.
type Vocabulary struct {
	Foods      []VocabularyFood `json:"foods"`
	Quantities []QuantityCue    `json:"quantities"`
}

// LoadVocabulary reads the table from path, or the embedded default when path is empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data := defaultVocabulary
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read vocabulary: %w", err)
		}
		data = b
	}
	return ParseVocabulary(data)
}

func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(v.Foods) == 0 {
		return nil, errors.New("vocabulary has no foods")
	}
	for i := range v.Foods {
		v.Foods[i].Name = strings.ToLower(strings.TrimSpace(v.Foods[i].Name))
		if v.Foods[i].Name == "" {
			return nil, fmt.Errorf("vocabulary food %d has empty name", i)
		}
	}
	for i, q := range v.Quantities {
		if q.Value <= 0 {
			return nil, fmt.Errorf("quantity cue %d must be positive", i)
		}
	}
	return &v, nil
}

// MustDefaultVocabulary returns the embedded table and panics if it is broken.
func MustDefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(err)
	}
	return v
}
