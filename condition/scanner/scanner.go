package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leftmike/sqlmirror/condition/token"
)

type ScanCtx struct {
	Token   rune
	Error   error
	Keyword string // lower case, for Keyword
	Ident   string // Identifier
	String  string // String, unquoted
	Quote   rune   // String, ' or "
	Integer int64
	Float   float64
	Offset  int // byte offset of the token in the source
	End     int // byte offset just past the token
}

// Text returns the source text of the token.
func (sctx *ScanCtx) Text(src string) string {
	return src[sctx.Offset:sctx.End]
}

type Scanner struct {
	initialized bool
	src         string
	pos         int
	width       int
	buffer      strings.Builder
}

func (s *Scanner) Init(src string) {
	if s.initialized {
		panic("scanner already initialized")
	}
	s.initialized = true
	s.src = src
}

func (s *Scanner) Scan(sctx *ScanCtx) {
	s.buffer.Reset()
	sctx.Error = nil
	sctx.Token = s.scan(sctx)
	sctx.End = s.pos
}

func (s *Scanner) scan(sctx *ScanCtx) rune {
	r := s.readRune()
	for r >= 0 && unicode.IsSpace(r) {
		r = s.readRune()
	}
	sctx.Offset = s.pos - s.width
	if r < 0 {
		sctx.Offset = s.pos
		return r
	}

	if unicode.IsLetter(r) || r == '_' {
		return s.scanIdentifier(sctx, r)
	} else if unicode.IsDigit(r) {
		return s.scanNumber(sctx, r)
	} else if r == '\'' || r == '"' {
		return s.scanString(sctx, r)
	} else if token.IsOpRune(r) {
		s.buffer.WriteRune(r)
		r2 := s.readRune()
		if token.IsOpRune(r2) {
			s.buffer.WriteRune(r2)
			if r3, ok := token.Operators[s.buffer.String()]; ok {
				return r3
			}
		}
		s.unreadRune()
		if r == '!' {
			sctx.Error = fmt.Errorf("scanner: unexpected operator %c", r)
			return token.Error
		}
		return r
	} else if r == '.' || r == ',' || r == '(' || r == ')' || r == '[' || r == ']' {
		return r
	}

	sctx.Error = fmt.Errorf("scanner: unexpected character '%c'", r)
	return token.Error
}

func (s *Scanner) readRune() rune {
	if s.pos >= len(s.src) {
		s.width = 0
		return token.EOF
	}
	r, w := utf8.DecodeRuneInString(s.src[s.pos:])
	s.width = w
	s.pos += w
	return r
}

func (s *Scanner) unreadRune() {
	s.pos -= s.width
	s.width = 0
}

func (s *Scanner) scanIdentifier(sctx *ScanCtx, r rune) rune {
	for {
		s.buffer.WriteRune(r)
		r = s.readRune()
		if r == token.EOF {
			break
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			s.unreadRune()
			break
		}
	}

	id := s.buffer.String()
	if token.IsKeyword(id) {
		sctx.Keyword = strings.ToLower(id)
		return token.Keyword
	}
	sctx.Ident = id
	return token.Identifier
}

// scanNumber accepts digits, optionally followed by a dot and more digits; anything else is
// left for the next token.
func (s *Scanner) scanNumber(sctx *ScanCtx, r rune) rune {
	dbl := false
	for {
		s.buffer.WriteRune(r)
		r = s.readRune()
		if r == token.EOF {
			break
		}
		if !dbl && r == '.' {
			r2 := s.readRune()
			if r2 == token.EOF || !unicode.IsDigit(r2) {
				if r2 != token.EOF {
					s.unreadRune()
				}
				s.pos -= 1
				s.width = 0
				break
			}
			s.unreadRune()
			dbl = true
		} else if !unicode.IsDigit(r) {
			s.unreadRune()
			break
		}
	}

	var err error
	if dbl {
		sctx.Float, err = strconv.ParseFloat(s.buffer.String(), 64)
	} else {
		sctx.Integer, err = strconv.ParseInt(s.buffer.String(), 10, 64)
	}
	if err != nil {
		sctx.Error = err
		return token.Error
	}
	if dbl {
		return token.Float
	}
	return token.Integer
}

// scanString reads a string quoted with ' or "; the quote may be escaped by doubling it or
// with a backslash.
func (s *Scanner) scanString(sctx *ScanCtx, q rune) rune {
	for {
		r := s.readRune()
		if r == token.EOF {
			sctx.Error = fmt.Errorf("scanner: string missing terminating %c", q)
			return token.Error
		}
		if r == q {
			r = s.readRune()
			if r != q {
				if r != token.EOF {
					s.unreadRune()
				}
				break
			}
		} else if r == '\\' {
			r2 := s.readRune()
			if r2 == token.EOF {
				sctx.Error = fmt.Errorf("scanner: incomplete string escape")
				return token.Error
			}
			if r2 != q && r2 != '\\' {
				s.buffer.WriteRune(r)
			}
			r = r2
		}
		s.buffer.WriteRune(r)
	}

	sctx.String = s.buffer.String()
	sctx.Quote = q
	return token.String
}
