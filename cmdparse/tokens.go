package cmdparse

import (
	"strings"

	"github.com/ef-ds/deque"

	"github.com/dskrypa/command-parser/internal/pool"
)

// tokenStream is the matcher's view of the remaining raw arguments. It
// supports pushback so that a token consumed speculatively (a would-be
// option value that turns out to be an option itself) can be returned
// for reclassification.
type tokenStream struct {
	d deque.Deque
}

// streamPool recycles token streams across parses; the deque's internal
// spine is the allocation worth keeping warm.
var streamPool = pool.NewPool(func() *tokenStream { return &tokenStream{} })

func newTokenStream(args []string) *tokenStream {
	s := streamPool.Get()
	for _, arg := range args {
		s.d.PushBack(arg)
	}
	return s
}

// release empties the stream and returns it to the pool.
func (s *tokenStream) release() {
	for {
		if _, ok := s.d.PopFront(); !ok {
			break
		}
	}
	streamPool.Put(s)
}

// next pops the next raw token.
func (s *tokenStream) next() (string, bool) {
	v, ok := s.d.PopFront()
	if !ok {
		return "", false
	}
	return v.(string), true
}

// peek returns the next raw token without consuming it.
func (s *tokenStream) peek() (string, bool) {
	v, ok := s.d.Front()
	if !ok {
		return "", false
	}
	return v.(string), true
}

// pushBack returns a token to the front of the stream.
func (s *tokenStream) pushBack(tok string) {
	s.d.PushFront(tok)
}

// drain consumes and returns every remaining token.
func (s *tokenStream) drain() []string {
	out := make([]string, 0, s.d.Len())
	for {
		v, ok := s.d.PopFront()
		if !ok {
			return out
		}
		out = append(out, v.(string))
	}
}

func (s *tokenStream) len() int { return s.d.Len() }

// classified is the outcome of matching one raw token against a command
// table. The implementations below form the closed set of shapes the
// accumulation loop dispatches on.
type classified interface{ classifiedToken() }

// passThruMark is the literal "--" separator.
type passThruMark struct{}

// optionMatch is a single long or short option spelling that resolved
// to a parameter, possibly carrying an inline value ("--opt=v", "-ov").
type optionMatch struct {
	param     *Parameter
	spelling  string
	inline    string
	hasInline bool
	alt       bool
}

// clusterMatch is a combined short form ("-abc") where every character
// resolved to a combinable flag-like parameter.
type clusterMatch struct {
	raw   string
	parts []optionMatch
}

// choiceMatch is one or more tokens that matched a registered
// sub-command choice.
type choiceMatch struct {
	choice string
	words  int
	child  *Command
}

// plainValue is a token with no option interpretation; it feeds the
// current positional slot or pending option.
type plainValue struct {
	raw string
}

// unknownOption is a dash-prefixed token that matched nothing and does
// not qualify as a value.
type unknownOption struct {
	raw string
}

func (passThruMark) classifiedToken()  {}
func (optionMatch) classifiedToken()   {}
func (clusterMatch) classifiedToken()  {}
func (choiceMatch) classifiedToken()   {}
func (plainValue) classifiedToken()    {}
func (unknownOption) classifiedToken() {}

// looksLikeLong reports whether a token has long-option shape.
func looksLikeLong(tok string) bool {
	return strings.HasPrefix(tok, "--") && len(tok) > 2
}

// looksLikeShort reports whether a token has short-option shape,
// including clusters and inline values.
func looksLikeShort(tok string) bool {
	return len(tok) > 1 && tok[0] == '-' && tok[1] != '-'
}

// splitInline separates "--name=value" into its parts.
func splitInline(tok string) (name, value string, has bool) {
	if i := strings.IndexByte(tok, '='); i >= 0 {
		return tok[:i], tok[i+1:], true
	}
	return tok, "", false
}
