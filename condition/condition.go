package condition

import (
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// Item is one column of a Where or Having: Build is called with the column named by Key and
// returns a *Where (or a *Having).
type Item struct {
	Key   string
	Build func(col Column) (Clause, error)
}

// Condition accumulates clauses in the order Join, Where, GroupBy, Having, and OrderBy;
// LimitOffset may appear anywhere. The SQL text and the in-memory transforms are kept in the
// same order.
type Condition struct {
	table   Table
	clauses []Clause
}

// New returns an empty condition; tbl may be nil, in which case Where and Having keys are not
// checked against the columns of a table.
func New(tbl Table) *Condition {
	return &Condition{table: tbl}
}

func (c *Condition) Table() Table {
	return c.table
}

func (c *Condition) String() string {
	s := make([]string, 0, len(c.clauses))
	for _, cl := range c.clauses {
		if f := cl.String(); f != "" {
			s = append(s, f)
		}
	}
	return strings.Join(s, " ")
}

func (c *Condition) Clauses() []Clause {
	return c.clauses
}

func (c *Condition) Transforms() []Transform {
	ts := make([]Transform, 0, len(c.clauses))
	for _, cl := range c.clauses {
		ts = append(ts, cl.Transform)
	}
	return ts
}

// Apply runs the transforms in order over f.
func (c *Condition) Apply(f *frame.Frame) (*frame.Frame, error) {
	for _, t := range c.Transforms() {
		var err error
		f, err = t(f)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (c *Condition) Empty() bool {
	return len(c.clauses) == 0
}

var clauseRanks = map[Kind]int{
	JoinKind:    0,
	WhereKind:   1,
	GroupByKind: 2,
	HavingKind:  3,
	OrderByKind: 4,
}

// Check returns an error if the clauses are not in order.
func (c *Condition) Check() error {
	last := -1
	var prev Kind
	for _, cl := range c.clauses {
		k := cl.Kind()
		if k == LimitOffsetKind {
			continue
		}
		rank := clauseRanks[k]
		if rank < last {
			return sql.Errorf("condition: %s must come before %s", k, prev)
		} else if rank == last && k != JoinKind {
			return sql.Errorf("condition: more than one %s", k)
		}
		last = rank
		prev = k
	}
	return nil
}

func (c *Condition) add(cl Clause) error {
	c.clauses = append(c.clauses, cl)
	err := c.Check()
	if err != nil {
		c.clauses = c.clauses[:len(c.clauses)-1]
	}
	return err
}

func (c *Condition) OrderBy(ob *OrderBy) error {
	if ob == nil {
		return sql.Errorf("condition: missing OrderBy")
	}
	return c.add(ob)
}

func (c *Condition) LimitOffset(lo *LimitOffset) error {
	if lo == nil {
		return sql.Errorf("condition: missing LimitOffset")
	}
	return c.add(lo)
}

func (c *Condition) GroupBy(gb *GroupBy) error {
	if gb == nil {
		return sql.Errorf("condition: missing GroupBy")
	}
	return c.add(gb)
}

func (c *Condition) Join(j *Join) error {
	if j == nil {
		return sql.Errorf("condition: missing Join")
	}
	return c.add(j)
}

func (c *Condition) Where(items []Item, options ...string) error {
	fs, err := c.filters(WhereKind, items, options)
	if err != nil {
		return err
	}
	return c.add(fs)
}

func (c *Condition) Having(items []Item, options ...string) error {
	fs, err := c.filters(HavingKind, items, options)
	if err != nil {
		return err
	}
	return c.add(fs)
}

func (c *Condition) filters(kind Kind, items []Item, options []string) (*filterSet, error) {
	if len(items) == 0 {
		return nil, sql.Errorf("condition: %s needs at least one column", kind)
	}
	if len(options) != len(items)-1 {
		return nil, sql.Errorf("condition: %s: %d columns need %d options, got %d", kind,
			len(items), len(items)-1, len(options))
	}

	fs := &filterSet{kind: kind}
	for _, o := range options {
		o = strings.ToLower(strings.TrimSpace(o))
		if o != "and" && o != "or" {
			return nil, sql.Errorf("condition: option must be and or or: %q", o)
		}
		fs.options = append(fs.options, o)
	}

	for _, item := range items {
		var col Column
		if c.table != nil {
			var ok bool
			col, ok = c.table.LookupColumn(item.Key)
			if !ok {
				return nil, sql.Errorf("condition: column %s not in table %s", item.Key,
					c.table.Name())
			}
		} else {
			col = Name(item.Key)
		}
		if item.Build == nil {
			return nil, sql.Errorf("condition: %s: missing builder for %s", kind, item.Key)
		}

		cl, err := item.Build(col)
		if err != nil {
			return nil, err
		}
		var f filter
		switch cl := cl.(type) {
		case *Where:
			if kind != WhereKind || cl == nil {
				return nil, sql.Errorf("condition: the data type must be %s", kind)
			}
			f = cl.filter
		case *Having:
			if kind != HavingKind || cl == nil {
				return nil, sql.Errorf("condition: the data type must be %s", kind)
			}
			f = cl.filter
		default:
			return nil, sql.Errorf("condition: the data type must be %s", kind)
		}
		fs.filters = append(fs.filters, f)
	}
	return fs, nil
}

// filterSet is the Where or Having of a condition: filters joined by and and or, with and
// binding more tightly.
type filterSet struct {
	kind    Kind
	filters []filter
	options []string
}

func (fs *filterSet) String() string {
	var b strings.Builder
	if fs.kind == WhereKind {
		b.WriteString("WHERE ")
	} else {
		b.WriteString("HAVING ")
	}
	for fdx, f := range fs.filters {
		if fdx > 0 {
			b.WriteByte(' ')
			b.WriteString(strings.ToUpper(fs.options[fdx-1]))
			b.WriteByte(' ')
		}
		b.WriteString(f.String())
	}
	return b.String()
}

func (fs *filterSet) Kind() Kind {
	return fs.kind
}

// Predicate returns the in-memory spelling of the filters.
func (fs *filterSet) Predicate() string {
	var b strings.Builder
	for fdx, f := range fs.filters {
		if fdx > 0 {
			b.WriteByte(' ')
			b.WriteString(fs.options[fdx-1])
			b.WriteByte(' ')
		}
		b.WriteByte('(')
		b.WriteString(f.Predicate())
		b.WriteByte(')')
	}
	return b.String()
}

func (fs *filterSet) evaluator(cols []string) (Evaluator, error) {
	// groups of and'ed filters, or'ed together
	var groups [][]Evaluator
	var group []Evaluator
	for fdx, f := range fs.filters {
		ev, err := f.evaluator(cols)
		if err != nil {
			return nil, err
		}
		if fdx > 0 && fs.options[fdx-1] == "or" {
			groups = append(groups, group)
			group = nil
		}
		group = append(group, ev)
	}
	groups = append(groups, group)

	return func(row []sql.Value) (sql.Value, error) {
		result := sql.Value(sql.BoolValue(false))
		for _, g := range groups {
			gv := sql.Value(sql.BoolValue(true))
			for _, ev := range g {
				v, err := ev(row)
				if err != nil {
					return nil, err
				}
				gv, err = and3(gv, v)
				if err != nil {
					return nil, err
				}
			}
			var err error
			result, err = or3(result, gv)
			if err != nil {
				return nil, err
			}
		}
		return result, nil
	}, nil
}

func (fs *filterSet) Transform(f *frame.Frame) (*frame.Frame, error) {
	ev, err := fs.evaluator(f.Columns)
	if err != nil {
		return nil, err
	}
	return filterFrame(f, ev)
}
