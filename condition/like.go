package condition

import (
	"regexp"
	"strings"

	"github.com/leftmike/sqlmirror/sql"
)

// Like is a LIKE test of a column against a pattern with % and _ wildcards; it may be joined
// to the rest of a Where with and or or.
type Like struct {
	column   string
	key      string
	pattern  string
	operator string
	not      bool
	re       *regexp.Regexp
}

func NewLike(column interface{}, pattern string, operator string, not bool) (*Like, error) {
	name, key, err := columnNames(column)
	if err != nil {
		return nil, err
	}
	operator = strings.ToLower(strings.TrimSpace(operator))
	if operator != "" && operator != "and" && operator != "or" {
		return nil, sql.Errorf("like operator must be and, or, or empty: %q", operator)
	}
	re, err := LikeRegexp(pattern)
	if err != nil {
		return nil, err
	}
	return &Like{
		column:   name,
		key:      key,
		pattern:  pattern,
		operator: operator,
		not:      not,
		re:       re,
	}, nil
}

// LikeRegexp converts an SQL LIKE pattern to an anchored regular expression: _ matches any
// one character, % matches any run of characters, and a backslash escapes the next character.
func LikeRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?s)^")
	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; r {
		case '\\':
			if i+1 < len(rs) {
				i += 1
				b.WriteString(regexp.QuoteMeta(string(rs[i])))
			} else {
				b.WriteString(regexp.QuoteMeta(`\`))
			}
		case '_':
			b.WriteByte('.')
		case '%':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

func (l *Like) String() string {
	var b strings.Builder
	if l.operator != "" {
		b.WriteString(strings.ToUpper(l.operator))
		b.WriteByte(' ')
	}
	if l.not {
		b.WriteString("NOT ")
	}
	b.WriteString(l.column)
	b.WriteString(" LIKE ")
	b.WriteString(sql.QuoteString(l.pattern))
	return b.String()
}

func (l *Like) Key() string {
	return l.key
}

func (l *Like) Operator() string {
	return l.operator
}

func (l *Like) Regexp() *regexp.Regexp {
	return l.re
}

// Match reports whether v matches the pattern, taking not into account; NULL and Absent never
// match.
func (l *Like) Match(v sql.Value) bool {
	if sql.IsEmpty(v) {
		return false
	}
	return l.re.MatchString(sql.Text(v)) != l.not
}

// evaluator returns the three valued in-memory form of the like.
func (l *Like) evaluator(cols []string) (Evaluator, error) {
	cctx := compileCtx{cols: cols}
	cdx, err := cctx.columnIndex(&Ref{Column: l.key})
	if err != nil {
		return nil, err
	}
	return func(row []sql.Value) (sql.Value, error) {
		v := row[cdx]
		if sql.IsEmpty(v) {
			return nil, nil
		}
		return sql.BoolValue(l.re.MatchString(sql.Text(v)) != l.not), nil
	}, nil
}
