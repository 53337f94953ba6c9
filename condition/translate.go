package condition

import (
	"strings"

	"github.com/leftmike/sqlmirror/condition/scanner"
	"github.com/leftmike/sqlmirror/condition/token"
	"github.com/leftmike/sqlmirror/sql"
)

// rewriter writes a replacement for the tokens starting at toks[i] and returns how many
// tokens it replaced; zero means the token is copied unchanged.
type rewriter func(src string, toks []scanner.ScanCtx, i int, b *strings.Builder) int

// rewrite applies fn to the tokens of src. Whitespace and tokens fn does not replace are
// copied verbatim; text after a scanning error is copied verbatim.
func rewrite(src string, fn rewriter) string {
	toks := tokenize(src)
	var b strings.Builder
	prev := 0
	for i := 0; i < len(toks); {
		t := toks[i]
		if t.Token == token.EOF {
			break
		} else if t.Token == token.Error {
			b.WriteString(src[prev:])
			return b.String()
		}

		b.WriteString(src[prev:t.Offset])
		n := fn(src, toks, i, &b)
		if n == 0 {
			b.WriteString(t.Text(src))
			n = 1
		}
		prev = toks[i+n-1].End
		i += n
	}
	b.WriteString(src[prev:])
	return b.String()
}

func convertOperator(r rune, toSQL bool) (string, bool) {
	if toSQL {
		switch r {
		case token.EqualEqual:
			return "=", true
		case token.BangEqual:
			return "<>", true
		}
	} else {
		switch r {
		case token.Equal:
			return "==", true
		case token.LessGreater:
			return "!=", true
		}
	}
	return "", false
}

// ConvertOperators converts == and != to = and <> when toSQL is true, and = and <> to == and
// != otherwise. Quoted strings are not changed.
func ConvertOperators(text string, toSQL bool) string {
	return rewrite(text,
		func(src string, toks []scanner.ScanCtx, i int, b *strings.Builder) int {
			if s, ok := convertOperator(toks[i].Token, toSQL); ok {
				b.WriteString(s)
				return 1
			}
			return 0
		})
}

func replaceBracket(r rune) (string, bool) {
	switch r {
	case token.LBracket:
		return "(", true
	case token.RBracket:
		return ")", true
	}
	return "", false
}

// ReplaceBrackets converts [ and ] list brackets to ( and ).
func ReplaceBrackets(text string) string {
	return rewrite(text,
		func(src string, toks []scanner.ScanCtx, i int, b *strings.Builder) int {
			if s, ok := replaceBracket(toks[i].Token); ok {
				b.WriteString(s)
				return 1
			}
			return 0
		})
}

func isNull(kw string) bool {
	return kw == "none" || kw == "null" || kw == "nil"
}

// ChangeWords converts a condition to SQL: keywords are upper cased, none becomes NULL,
// double quoted strings become single quoted, lists use parentheses, and operators are
// converted to their SQL spelling.
func ChangeWords(text string) string {
	return rewrite(text,
		func(src string, toks []scanner.ScanCtx, i int, b *strings.Builder) int {
			t := toks[i]
			switch t.Token {
			case token.Keyword:
				if isNull(t.Keyword) {
					b.WriteString(sql.NullString)
				} else {
					b.WriteString(strings.ToUpper(t.Keyword))
				}
				return 1
			case token.String:
				if t.Quote == '"' {
					b.WriteString(sql.QuoteString(t.String))
					return 1
				}
				return 0
			}
			if s, ok := replaceBracket(t.Token); ok {
				b.WriteString(s)
				return 1
			}
			if s, ok := convertOperator(t.Token, true); ok {
				b.WriteString(s)
				return 1
			}
			return 0
		})
}

// qualifiedRef returns the number of tokens of a table.column reference starting at toks[i]
// that names col, or zero.
func qualifiedRef(toks []scanner.ScanCtx, i int, col Column) int {
	if i+2 >= len(toks) || toks[i].Token != token.Identifier || toks[i+1].Token != token.Dot ||
		toks[i+2].Token != token.Identifier {
		return 0
	}
	if toks[i].Ident+"."+toks[i+2].Ident != col.Name() {
		return 0
	}
	return 3
}

// ChangeValues converts a condition to the in-memory spelling: references to the column by
// its qualified name become its key, keywords are lower cased, NULL becomes nil, and
// operators use == and !=.
func ChangeValues(text string, col Column) string {
	return rewrite(text,
		func(src string, toks []scanner.ScanCtx, i int, b *strings.Builder) int {
			t := toks[i]
			if col != nil {
				if n := qualifiedRef(toks, i, col); n > 0 {
					b.WriteString(col.Key())
					return n
				}
			}
			if t.Token == token.Keyword {
				if isNull(t.Keyword) {
					b.WriteString("nil")
				} else {
					b.WriteString(t.Keyword)
				}
				return 1
			}
			if s, ok := convertOperator(t.Token, false); ok {
				b.WriteString(s)
				return 1
			}
			return 0
		})
}

// callEnd returns the index of the token closing the call whose name is at toks[i], or -1.
func callEnd(toks []scanner.ScanCtx, i int) int {
	if toks[i].Token != token.Identifier || i+1 >= len(toks) || toks[i+1].Token != token.LParen {
		return -1
	}
	depth := 0
	for j := i + 1; j < len(toks); j++ {
		switch toks[j].Token {
		case token.LParen:
			depth += 1
		case token.RParen:
			depth -= 1
			if depth == 0 {
				return j
			}
		case token.EOF, token.Error:
			return -1
		}
	}
	return -1
}

// ChangeFunc replaces each call whose first argument is col, such as max(users.age), with the
// literal value of col's aggregate of that name. Other calls are unchanged.
func ChangeFunc(text string, col Column) (string, error) {
	var err error
	s := rewrite(text,
		func(src string, toks []scanner.ScanCtx, i int, b *strings.Builder) int {
			if err != nil {
				return 0
			}
			end := callEnd(toks, i)
			if end < 0 {
				return 0
			}
			e, perr := Parse(src[toks[i].Offset:toks[end].End])
			if perr != nil {
				return 0
			}
			c, ok := e.(*Call)
			if !ok || len(c.Args) == 0 {
				return 0
			}
			r, ok := c.Args[0].(*Ref)
			if !ok || !refersTo(r, col) {
				return 0
			}

			var args []sql.Value
			args, err = literalArgs(c.Args[1:])
			if err != nil {
				return 0
			}
			var v sql.Value
			v, err = col.Aggregate(c.Name, args...)
			if err != nil {
				return 0
			}
			b.WriteString(sql.Literal(v))
			return end - i + 1
		})
	if err != nil {
		return "", err
	}
	return s, nil
}

// ArgValue types a function argument written in a condition: only digits is an integer, two
// groups of digits separated by a dot is a float, and anything else is a string with any
// quotes removed.
func ArgValue(s string) sql.Value {
	s = strings.TrimSpace(s)
	toks := tokenize(s)
	if len(toks) == 2 && toks[1].Token == token.EOF {
		switch toks[0].Token {
		case token.Integer:
			return sql.Int64Value(toks[0].Integer)
		case token.Float:
			return sql.Float64Value(toks[0].Float)
		case token.String:
			return sql.StringValue(toks[0].String)
		}
	}
	return sql.StringValue(s)
}
