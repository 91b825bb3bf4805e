//nolint:testpackage // exercises unexported matcher internals
package fuzzy

import (
	"testing"
)

func TestFindBest(t *testing.T) {
	matcher := NewMatcher(2)

	tests := []struct {
		name       string
		input      string
		candidates []string
		want       string
	}{
		{"exact match is not a typo", "help", []string{"help", "version"}, ""},
		{"dropped letter", "hep", []string{"help", "version", "verbose"}, "help"},
		{"truncated command", "stat", []string{"status", "sync", "backup"}, "status"},
		{"dropped letter mid-word", "timeot", []string{"timeout", "retry"}, "timeout"},
		{"nothing within budget", "xyz", []string{"help", "version", "verbose"}, ""},
		{"case folded", "HEP", []string{"help", "version"}, "help"},
		{"input too short", "x", []string{"help", "version"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matcher.FindBest(tt.input, tt.candidates); got != tt.want {
				t.Errorf("FindBest(%q, %v) = %q, want %q", tt.input, tt.candidates, got, tt.want)
			}
		})
	}
}

func TestFindMatches(t *testing.T) {
	matcher := NewMatcher(2)

	tests := []struct {
		name       string
		input      string
		candidates []string
		wantCount  int
	}{
		{"two close one far", "hep", []string{"help", "heap", "version"}, 2},
		{"all within budget", "ver", []string{"very", "veri", "vers", "vex"}, 4},
		{"none within budget", "xyz", []string{"help", "version", "verbose"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := matcher.FindMatches(tt.input, tt.candidates)
			if len(matches) != tt.wantCount {
				t.Fatalf("FindMatches(%q) returned %d matches, want %d: %v",
					tt.input, len(matches), tt.wantCount, matches)
			}
			for i, match := range matches {
				if i > 0 && matches[i-1].Score < match.Score {
					t.Errorf("scores out of order at %d: %f < %f", i, matches[i-1].Score, match.Score)
				}
				if match.Distance > matcher.maxDistance {
					t.Errorf("match %q distance %d exceeds budget %d", match.Value, match.Distance, matcher.maxDistance)
				}
				if match.Score < 0 || match.Score > 1 {
					t.Errorf("match %q score %f outside [0,1]", match.Value, match.Score)
				}
			}
		})
	}
}

func TestDistance(t *testing.T) {
	matcher := NewMatcher(10)

	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "ab", 1},
		{"abc", "abcd", 1},
		{"abc", "axc", 1},
		{"help", "hep", 1},
		{"version", "ver", 4},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := matcher.distance(tt.a, tt.b); got != tt.want {
				t.Errorf("distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDistanceGivesUpEarly(t *testing.T) {
	matcher := NewMatcher(2)

	// A length gap beyond the budget short-circuits before any rows run.
	if got := matcher.distance("short", "verylongstring"); got != matcher.maxDistance+1 {
		t.Errorf("length gap: got %d, want %d", got, matcher.maxDistance+1)
	}

	// Equal lengths but every position wrong abandons after the budget.
	if got := matcher.distance("aaaaaaaa", "bbbbbbbb"); got != matcher.maxDistance+1 {
		t.Errorf("hopeless row: got %d, want %d", got, matcher.maxDistance+1)
	}
}

func TestScore(t *testing.T) {
	matcher := NewMatcher(3)

	tests := []struct {
		input     string
		candidate string
		low       float64
		high      float64
	}{
		{"hep", "help", 0.7, 1.0},
		{"ver", "very", 0.7, 1.0},
		{"xyz", "abc", 0.0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.input+"_"+tt.candidate, func(t *testing.T) {
			d := matcher.distance(tt.input, tt.candidate)
			got := matcher.score(tt.input, tt.candidate, d)
			if got < tt.low || got > tt.high {
				t.Errorf("score(%q, %q, %d) = %f, want within [%f, %f]",
					tt.input, tt.candidate, d, got, tt.low, tt.high)
			}
		})
	}
}

func TestSharedPrefix(t *testing.T) {
	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"", "", 0},
		{"abc", "", 0},
		{"abc", "abc", 3},
		{"abc", "ab", 2},
		{"abc", "axc", 1},
		{"help", "hello", 3},
		{"version", "verbose", 3},
	}

	for _, tt := range tests {
		if got := sharedPrefix(tt.a, tt.b); got != tt.want {
			t.Errorf("sharedPrefix(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"", "", 0},
		{"abc", "", 0},
		{"abc", "abc", 3},
		{"abc", "bca", 3},
		{"abc", "def", 0},
		{"help", "hello", 3},
		{"aab", "abb", 2},
	}

	for _, tt := range tests {
		if got := overlap(tt.a, tt.b); got != tt.want {
			t.Errorf("overlap(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConvenienceFunctions(t *testing.T) {
	options := []string{"help", "verbose", "recursive", "output"}
	choices := []string{"sync", "backup", "restore", "status"}

	if got := FindBestOption("hep", options, 2); got != "help" {
		t.Errorf("FindBestOption(hep) = %q, want help", got)
	}
	if got := FindBestChoice("stat", choices, 2); got != "status" {
		t.Errorf("FindBestChoice(stat) = %q, want status", got)
	}
}

func TestFindSuggestionsCap(t *testing.T) {
	candidates := []string{"help", "heap", "version"}

	suggestions := FindSuggestions("hep", candidates, 2, 1)
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %v", suggestions)
	}
	if s := suggestions[0]; s != "help" && s != "heap" {
		t.Errorf("unexpected suggestion %q", s)
	}

	if got := FindSuggestions("hep", candidates, 2, 0); len(got) != 0 {
		t.Errorf("cap 0: got %v", got)
	}
	if got := FindSuggestions("xyz", candidates, 2, 3); len(got) != 0 {
		t.Errorf("no matches: got %v", got)
	}
}
