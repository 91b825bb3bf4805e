// Package fuzzy ranks near-miss candidates for parse error
// suggestions: mistyped option strings and sub-command choices.
package fuzzy

import (
	"sort"
	"strings"
)

// Matcher scores candidates against an input within a maximum edit
// distance. Inputs shorter than minLength never produce suggestions;
// one- or two-character typos have too many equally-plausible repairs.
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher with the given maximum edit distance.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{maxDistance: maxDistance, minLength: 2}
}

// Match is one scored candidate.
type Match struct {
	Value    string
	Distance int
	Score    float64 // in [0, 1], 1 is a near-exact match
}

// FindBest returns the best-scoring candidate, or "" when nothing lands
// within the distance budget.
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches scores every candidate within the distance budget, best
// first. Exact matches are skipped; an exact match is not a typo.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	if len(input) < m.minLength {
		return nil
	}

	needle := strings.ToLower(input)
	var matches []Match
	for _, candidate := range candidates {
		option := strings.ToLower(candidate)
		if option == needle {
			continue
		}
		d := m.distance(needle, option)
		if d > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: d,
			Score:    m.score(needle, option, d),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// score blends edit distance with prefix, length, and character-overlap
// bonuses. Users typically get the beginning of an option right, so a
// shared prefix outweighs the other signals.
func (m *Matcher) score(input, candidate string, d int) float64 {
	longest := max(len(input), len(candidate))
	if longest == 0 {
		return 1
	}

	s := 1 - float64(d)/float64(longest)
	if n := sharedPrefix(input, candidate); n > 0 {
		s += 0.3 * float64(n) / float64(min(len(input), len(candidate)))
	}
	gap := abs(len(input) - len(candidate))
	s += 0.2 * (1 - float64(gap)/float64(longest))
	s += 0.1 * float64(overlap(input, candidate)) / float64(longest)

	return min(s, 1.0)
}

// distance is byte-level Levenshtein over a single reused row, giving up
// as soon as a whole row exceeds the budget. Option and command names
// are ASCII, so bytes and characters coincide.
func (m *Matcher) distance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if abs(len(a)-len(b)) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	row := make([]int, len(a)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(b); i++ {
		diag := row[0]
		row[0] = i
		best := i
		for j := 1; j <= len(a); j++ {
			up := row[j]
			cost := 0
			if a[j-1] != b[i-1] {
				cost = 1
			}
			row[j] = min(row[j-1]+1, up+1, diag+cost)
			diag = up
			if row[j] < best {
				best = row[j]
			}
		}
		if best > m.maxDistance {
			return m.maxDistance + 1
		}
	}
	return row[len(a)]
}

// sharedPrefix counts leading bytes the strings agree on.
func sharedPrefix(a, b string) int {
	limit := min(len(a), len(b))
	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return limit
}

// overlap counts characters present in both strings, respecting
// multiplicity.
func overlap(a, b string) int {
	counts := make(map[rune]int, len(a))
	for _, r := range a {
		counts[r]++
	}
	var n int
	for _, r := range b {
		if counts[r] > 0 {
			counts[r]--
			n++
		}
	}
	return n
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// Convenience entry points used by error decoration.

// FindBestOption finds the closest registered option string for a
// token nothing matched.
func FindBestOption(input string, options []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, options)
}

// FindBestChoice finds the closest registered sub-command choice for a
// value that matched none.
func FindBestChoice(input string, choices []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, choices)
}

// FindSuggestions returns up to maxSuggestions candidates, best first.
func FindSuggestions(input string, candidates []string, maxDistance, maxSuggestions int) []string {
	matches := NewMatcher(maxDistance).FindMatches(input, candidates)
	if len(matches) > maxSuggestions {
		matches = matches[:max(maxSuggestions, 0)]
	}
	suggestions := make([]string, len(matches))
	for i, match := range matches {
		suggestions[i] = match.Value
	}
	return suggestions
}
