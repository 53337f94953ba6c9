package condition

import (
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type Kind int

const (
	JoinKind Kind = iota
	WhereKind
	GroupByKind
	HavingKind
	OrderByKind
	LimitOffsetKind
)

var kinds = map[Kind]string{
	JoinKind:        "Join",
	WhereKind:       "Where",
	GroupByKind:     "GroupBy",
	HavingKind:      "Having",
	OrderByKind:     "OrderBy",
	LimitOffsetKind: "LimitOffset",
}

func (k Kind) String() string {
	return kinds[k]
}

// Transform is the in-memory equivalent of a clause.
type Transform func(f *frame.Frame) (*frame.Frame, error)

type Clause interface {
	fmt.Stringer // SQL fragment
	Kind() Kind
	Transform(f *frame.Frame) (*frame.Frame, error)
}

// Column is a column of a table as seen by a condition: Key is the bare name used in the
// in-memory rows and Name is the table qualified name used in SQL.
type Column interface {
	Key() string
	Name() string
	Aggregate(fn string, args ...sql.Value) (sql.Value, error)
}

// Name is a Column known only by its name; it has no values to aggregate.
type Name string

func (n Name) Key() string {
	s := string(n)
	if idx := strings.LastIndexByte(s, '.'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func (n Name) Name() string {
	return string(n)
}

func (n Name) Aggregate(fn string, args ...sql.Value) (sql.Value, error) {
	return nil, fmt.Errorf("condition: %s(%s): column has no values", fn, string(n))
}

// Table is what a condition is built against.
type Table interface {
	Name() string
	LookupColumn(key string) (Column, bool)
}

// Source is a table that can be joined.
type Source interface {
	Name() string
	HasColumn(col string) bool
	Frame() *frame.Frame
}

// columnNames returns the SQL name and the in-memory key of c, which must be a string or a
// Column.
func columnNames(c interface{}) (string, string, error) {
	switch c := c.(type) {
	case string:
		if c == "" {
			return "", "", sql.Errorf("empty column name")
		}
		return c, Name(c).Key(), nil
	case Column:
		return c.Name(), c.Key(), nil
	}
	return "", "", sql.Errorf("column must be a string or a Column, got %T", c)
}
