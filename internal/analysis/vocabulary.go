// Package analysis aggregates normalized job listings into dashboard datasets:
// skill frequencies, per-field value counts and the popular jobs leaderboard.
package analysis

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyVocabulary is returned when no usable skill term is supplied
var ErrEmptyVocabulary = errors.New("skill vocabulary is empty")

// Vocabulary is an ordered, lowercase, duplicate-free list of skill terms.
// Order matters: it breaks ties when ranking skills.
type Vocabulary []string

// defaultSkills is the data science skill list the dashboard ships with
var defaultSkills = []string{
	"python",
	"r",
	"java",
	"scala",
	"sql",
	"nosql",
	"hadoop",
	"spark",
	"aws",
	"azure",
	"google cloud",
	"tableau",
	"power bi",
	"excel",
	"sas",
	"matlab",
	"tensorflow",
	"pytorch",
	"keras",
	"scikit-learn",
	"numpy",
	"pandas",
	"matplotlib",
	"seaborn",
	"d3",
}

// DefaultVocabulary returns a copy of the built-in skill list
func DefaultVocabulary() Vocabulary {
	v := make(Vocabulary, len(defaultSkills))
	copy(v, defaultSkills)
	return v
}

// NewVocabulary lowercases and trims terms, dropping blanks and later duplicates
func NewVocabulary(terms []string) (Vocabulary, error) {
	seen := make(map[string]bool, len(terms))
	v := make(Vocabulary, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.Join(strings.Fields(term), " "))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		v = append(v, term)
	}
	if len(v) == 0 {
		return nil, ErrEmptyVocabulary
	}
	return v, nil
}

type vocabularyFile struct {
	Skills []string `yaml:"skills"`
}

// LoadVocabulary reads a YAML document of the form:
//
//	skills:
//	  - python
//	  - power bi
func LoadVocabulary(path string) (Vocabulary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}

	var f vocabularyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}

	v, err := NewVocabulary(f.Skills)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}
