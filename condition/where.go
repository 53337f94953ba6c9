package condition

import (
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type filter struct {
	col    Column
	params string
	expr   Expr
	like   *Like
	not    bool
	sql    string
}

func newFilter(col Column, params string, like *Like, not bool, having bool) (filter, error) {
	if col == nil {
		return filter{}, sql.Errorf("where: missing column")
	}
	f := filter{
		col:    col,
		params: params,
		like:   like,
		not:    not,
	}

	text := strings.TrimSpace(params)
	if text == "" && like == nil {
		return filter{}, sql.Errorf("where: empty condition for column %s", col.Name())
	}
	if text != "" {
		var err error
		f.expr, err = Parse(text)
		if err != nil {
			return filter{}, err
		}
		if like != nil && like.Operator() == "" {
			return filter{}, sql.Errorf("where: like on %s must be joined with and or or",
				col.Name())
		}
		if !having {
			text, err = ChangeFunc(text, col)
			if err != nil {
				return filter{}, err
			}
		}
		text = ChangeWords(text)
	}

	var b strings.Builder
	if not {
		b.WriteString("NOT ")
	}
	b.WriteByte('(')
	b.WriteString(text)
	if like != nil {
		if text != "" {
			b.WriteByte(' ')
		}
		b.WriteString(like.String())
	}
	b.WriteByte(')')
	f.sql = b.String()
	return f, nil
}

func (f filter) String() string {
	return f.sql
}

// Predicate returns the in-memory spelling of the condition.
func (f filter) Predicate() string {
	var s string
	if f.expr != nil {
		s = ChangeValues(strings.TrimSpace(f.params), f.col)
	}
	if f.like != nil {
		l := f.like.key + " like " + sql.QuoteString(f.like.pattern)
		if f.like.not {
			l = "not " + l
		}
		if s != "" {
			s = s + " " + f.like.operator + " " + l
		} else {
			s = l
		}
	}
	if f.not {
		return "not (" + s + ")"
	}
	return s
}

func (f filter) Column() Column {
	return f.col
}

func (f filter) evaluator(cols []string) (Evaluator, error) {
	var ev Evaluator
	if f.expr != nil {
		var err error
		ev, err = Compile(f.expr, cols, f.col)
		if err != nil {
			return nil, err
		}
	}
	if f.like != nil {
		lev, err := f.like.evaluator(cols)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			ev = lev
		} else {
			left := ev
			op := AndOp
			if f.like.operator == "or" {
				op = OrOp
			}
			ev = func(row []sql.Value) (sql.Value, error) {
				l, err := left(row)
				if err != nil {
					return nil, err
				}
				r, err := lev(row)
				if err != nil {
					return nil, err
				}
				if op == AndOp {
					return and3(l, r)
				}
				return or3(l, r)
			}
		}
	}
	if f.not {
		inner := ev
		ev = func(row []sql.Value) (sql.Value, error) {
			v, err := inner(row)
			if err != nil {
				return nil, err
			}
			return not3(v)
		}
	}
	return ev, nil
}

func filterFrame(f *frame.Frame, ev Evaluator) (*frame.Frame, error) {
	return f.Filter(
		func(r frame.Row) (bool, error) {
			return Truth(ev, r.Values)
		})
}

// Where filters rows of a table by a condition on one of its columns, optionally combined
// with a Like.
type Where struct {
	filter
}

func NewWhere(col Column, params string, like *Like, not bool) (*Where, error) {
	f, err := newFilter(col, params, like, not, false)
	if err != nil {
		return nil, err
	}
	return &Where{f}, nil
}

func (_ *Where) Kind() Kind {
	return WhereKind
}

func (w *Where) Transform(f *frame.Frame) (*frame.Frame, error) {
	ev, err := w.evaluator(f.Columns)
	if err != nil {
		return nil, err
	}
	return filterFrame(f, ev)
}

// Having is a Where applied after grouping.
type Having struct {
	filter
}

func NewHaving(col Column, params string, like *Like, not bool) (*Having, error) {
	f, err := newFilter(col, params, like, not, true)
	if err != nil {
		return nil, err
	}
	return &Having{f}, nil
}

func (_ *Having) Kind() Kind {
	return HavingKind
}

func (h *Having) Transform(f *frame.Frame) (*frame.Frame, error) {
	ev, err := h.evaluator(f.Columns)
	if err != nil {
		return nil, err
	}
	return filterFrame(f, ev)
}
