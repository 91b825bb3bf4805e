// Package intern provides thread-safe string interning for option
// strings. Inherited parameters are re-indexed into every descendant
// command's table, so the same spellings recur once per node; interning
// lets all tables share one backing string per spelling.
package intern

import (
	"sync"
)

// StringInterner is a concurrent intern table mapping each spelling to
// its canonical copy.
type StringInterner struct {
	mu    sync.RWMutex
	table map[string]string
}

// NewStringInterner creates an interner sized for roughly sizeHint
// distinct spellings.
func NewStringInterner(sizeHint int) *StringInterner {
	if sizeHint < 16 {
		sizeHint = 16
	}
	return &StringInterner{table: make(map[string]string, sizeHint)}
}

// Intern returns the canonical copy of s, storing it on first sight.
// The read-locked fast path covers the steady state where every
// spelling was seen during earlier table builds.
func (si *StringInterner) Intern(s string) string {
	si.mu.RLock()
	canon, ok := si.table[s]
	si.mu.RUnlock()
	if ok {
		return canon
	}
	return si.store(s)
}

// store re-checks under the write lock; when two goroutines race on a
// new spelling, the first store wins and its copy becomes canonical.
func (si *StringInterner) store(s string) string {
	si.mu.Lock()
	defer si.mu.Unlock()
	if canon, ok := si.table[s]; ok {
		return canon
	}
	si.table[s] = s
	return s
}

// PreIntern seeds the interner with known-common spellings.
func (si *StringInterner) PreIntern(spellings []string) {
	si.mu.Lock()
	defer si.mu.Unlock()
	for _, s := range spellings {
		si.table[s] = s
	}
}

// Len reports the number of distinct interned spellings.
func (si *StringInterner) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.table)
}

// CommonOptionStrings holds spellings that appear in nearly every
// command hierarchy, pre-interned so first table builds skip the write
// path for them.
var CommonOptionStrings = []string{
	"--help", "-h", "--version", "-V", "--verbose", "-v",
	"--quiet", "-q", "--config", "-c", "--output", "-o",
	"--input", "-i", "--force", "-f", "--debug", "-d",
	"--dry-run", "-n", "--color", "--no-color",
}

// GlobalInterner is the process-wide interner table builds go through.
var GlobalInterner = newGlobal()

func newGlobal() *StringInterner {
	si := NewStringInterner(128)
	si.PreIntern(CommonOptionStrings)
	return si
}

// Intern interns a string using the global interner.
func Intern(s string) string {
	return GlobalInterner.Intern(s)
}
