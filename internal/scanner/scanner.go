// Package scanner finds citation tokens in arbitrary text. It is a pure
// lexical pass: no registry lookups, no allocation-heavy parsing, and any
// malformed surrounding text is simply skipped over.
package scanner

import (
	"strings"

	"github.com/scriptorium/claimledger/internal/domain"
)

// A citation token is the sigil 'C' followed by one or more digits, with an
// optional revision suffix (a bare lowercase letter or '.' plus a lowercase
// letter), bounded on both sides by non-alphanumerics. Two trailing
// annotations are recognized: "@T<digit>" asserts a tier, and a
// "(historical)" marker permits citing invalidated claims.

// Scanner yields citations one at a time. It is restartable: build a new
// Scanner over the same source to iterate again.
type Scanner struct {
	path string
	src  string
	pos  int
	line int
	col  int
}

func New(path, src string) *Scanner {
	return &Scanner{path: path, src: src, line: 1, col: 1}
}

// Next returns the next citation and true, or a zero Citation and false when
// the input is exhausted.
func (s *Scanner) Next() (domain.Citation, bool) {
	for s.pos < len(s.src) {
		ch := s.src[s.pos]
		if ch == byte(domain.ClaimSigil) && !s.precededByAlnum() {
			if cit, n, ok := s.match(); ok {
				s.advance(n)
				return cit, true
			}
		}
		s.advance(1)
	}
	return domain.Citation{}, false
}

// ScanAll collects every citation in the source, in document order.
func ScanAll(path, src string) []domain.Citation {
	sc := New(path, src)
	var out []domain.Citation
	for {
		c, ok := sc.Next()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func (s *Scanner) precededByAlnum() bool {
	if s.pos == 0 {
		return false
	}
	return isAlnum(s.src[s.pos-1])
}

// match attempts to read a citation starting at s.pos. It returns the
// citation, the number of bytes consumed, and whether a token matched.
func (s *Scanner) match() (domain.Citation, int, bool) {
	i := s.pos + 1
	digits := 0
	for i < len(s.src) && isDigit(s.src[i]) {
		i++
		digits++
	}
	if digits == 0 {
		// Sigil with no digits is not a near-miss worth reporting.
		return domain.Citation{}, 0, false
	}

	end := i
	revision := ""
	switch {
	case end < len(s.src) && isLower(s.src[end]):
		// Bare suffix form: C250a. Only a single letter qualifies.
		if end+1 < len(s.src) && isAlnum(s.src[end+1]) {
			return domain.Citation{}, 0, false
		}
		revision = string(s.src[end])
		end++
	case end+1 < len(s.src) && s.src[end] == '.' && isLower(s.src[end+1]):
		// Dotted suffix form: C250.a.
		if end+2 < len(s.src) && isAlnum(s.src[end+2]) {
			// ".ab" is a word, not a revision; fall back to the bare id.
			break
		}
		revision = string(s.src[end+1])
		end += 2
	}
	if end < len(s.src) && isAlnum(s.src[end]) {
		return domain.Citation{}, 0, false
	}

	cit := domain.Citation{
		ID:       domain.ClaimID(s.src[s.pos:s.pos+1+digits]),
		Revision: revision,
		Path:     s.path,
		Line:     s.line,
		Column:   s.col,
		TierNote: -1,
	}

	// Optional "@T<digit>" tier annotation, directly attached.
	if end+2 < len(s.src) && s.src[end] == '@' && s.src[end+1] == 'T' && isDigit(s.src[end+2]) {
		if !(end+3 < len(s.src) && isAlnum(s.src[end+3])) {
			cit.TierNote = int(s.src[end+2] - '0')
			end += 3
		}
	}

	// Optional "(historical)" marker, separated by spaces or tabs only.
	j := end
	for j < len(s.src) && (s.src[j] == ' ' || s.src[j] == '\t') {
		j++
	}
	if strings.HasPrefix(s.src[j:], "(historical)") {
		cit.Historical = true
		end = j + len("(historical)")
	}

	cit.Literal = s.src[s.pos:end]
	return cit, end - s.pos, true
}

func (s *Scanner) advance(n int) {
	for k := 0; k < n && s.pos < len(s.src); k++ {
		if s.src[s.pos] == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.pos++
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }

func isAlnum(b byte) bool {
	return isDigit(b) || isLower(b) || (b >= 'A' && b <= 'Z')
}
