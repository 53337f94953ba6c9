package token

import (
	"fmt"
	"strings"
)

const (
	EOF = -(iota + 1)
	Error
	Identifier
	Keyword
	String
	Integer
	Float

	LessEqual
	LessGreater
	GreaterEqual
	EqualEqual
	BangEqual
	StarStar
)

const (
	Comma    = ','
	Dot      = '.'
	LParen   = '('
	RParen   = ')'
	LBracket = '['
	RBracket = ']'
)

const (
	Minus   = '-'
	Plus    = '+'
	Star    = '*'
	Slash   = '/'
	Percent = '%'
	Equal   = '='
	Less    = '<'
	Greater = '>'
	Bang    = '!'
)

var operators = map[rune]string{
	LessEqual:    "<=",
	LessGreater:  "<>",
	GreaterEqual: ">=",
	EqualEqual:   "==",
	BangEqual:    "!=",
	StarStar:     "**",
}

var (
	opRunes = map[rune]bool{
		'-': true, '+': true, '*': true, '/': true, '%': true, '=': true, '<': true,
		'>': true, '!': true,
	}
	Operators = map[string]rune{}
)

func IsOpRune(r rune) bool {
	_, ok := opRunes[r]
	return ok
}

func Format(r rune) string {
	if r > 0 {
		return fmt.Sprintf("rune %c", r)
	}
	if s, ok := operators[r]; ok {
		return s
	}
	switch r {
	case EOF:
		return "end of condition"
	case Error:
		return "error"
	case Identifier:
		return "identifier"
	case Keyword:
		return "keyword"
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	}
	return fmt.Sprintf("token %d", r)
}

// Keywords of the condition language; they match case insensitively.
var keywords = map[string]struct{}{
	"and":     {},
	"between": {},
	"false":   {},
	"in":      {},
	"is":      {},
	"like":    {},
	"nil":     {},
	"none":    {},
	"not":     {},
	"null":    {},
	"or":      {},
	"true":    {},
}

func IsKeyword(s string) bool {
	_, ok := keywords[strings.ToLower(s)]
	return ok
}

func init() {
	for r, s := range operators {
		Operators[s] = r
	}
}
