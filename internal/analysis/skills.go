package analysis

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/project-tktt/job-dashboard/internal/domain"
)

// DefaultTopSkills is how many skills the dashboard chart shows
const DefaultTopSkills = 20

// wordChar is the class of runes that may not touch either end of a matched term
const wordChar = `\p{L}\p{N}_`

// SkillAnalyzer counts, per vocabulary term, how many listings mention it.
// An Aho-Corasick pass over the lowercased description finds candidate terms,
// then a boundary regexp confirms each candidate is a whole word.
type SkillAnalyzer struct {
	vocab    Vocabulary
	patterns []*regexp.Regexp

	// Match on the cloudflare matcher mutates internal counters
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

// NewSkillAnalyzer builds the automaton and boundary patterns for a vocabulary
func NewSkillAnalyzer(vocab Vocabulary) *SkillAnalyzer {
	patterns := make([]*regexp.Regexp, len(vocab))
	for i, term := range vocab {
		patterns[i] = regexp.MustCompile(
			`(?i)(?:^|[^` + wordChar + `])` + regexp.QuoteMeta(term) + `(?:[^` + wordChar + `]|$)`,
		)
	}

	a := &SkillAnalyzer{
		vocab:    vocab,
		patterns: patterns,
	}
	if len(vocab) > 0 {
		a.matcher = ahocorasick.NewStringMatcher(vocab)
	}
	return a
}

// Detect returns the vocabulary indexes present in text as whole words, ascending
func (a *SkillAnalyzer) Detect(text string) []int {
	if a.matcher == nil || text == "" {
		return nil
	}

	a.mu.Lock()
	hits := a.matcher.Match([]byte(strings.ToLower(text)))
	a.mu.Unlock()

	found := make([]int, 0, len(hits))
	seen := make(map[int]bool, len(hits))
	for _, idx := range hits {
		if idx < 0 || idx >= len(a.patterns) || seen[idx] {
			continue
		}
		seen[idx] = true
		if a.patterns[idx].MatchString(text) {
			found = append(found, idx)
		}
	}
	sort.Ints(found)
	return found
}

// Analyze returns one SkillCount per vocabulary term, in vocabulary order.
// A listing counts at most once per term no matter how often the term repeats.
func (a *SkillAnalyzer) Analyze(rows []domain.Listing) []domain.SkillCount {
	counts := make([]domain.SkillCount, len(a.vocab))
	for i, term := range a.vocab {
		counts[i].Skill = term
	}

	for _, row := range rows {
		for _, idx := range a.Detect(row.Description) {
			counts[idx].Count++
		}
	}
	return counts
}

// TopSkills sorts counts by count descending and keeps the first n.
// Ties keep their input (vocabulary) order. n <= 0 keeps everything.
func TopSkills(counts []domain.SkillCount, n int) []domain.SkillCount {
	sorted := make([]domain.SkillCount, len(counts))
	copy(sorted, counts)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
