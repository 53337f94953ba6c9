package condition

import (
	"github.com/leftmike/sqlmirror/frame"
)

type OrderBy struct {
	name    string
	key     string
	reverse bool
}

// NewOrderBy orders by col, a string or a Column; reverse orders descending.
func NewOrderBy(col interface{}, reverse bool) (*OrderBy, error) {
	name, key, err := columnNames(col)
	if err != nil {
		return nil, err
	}
	return &OrderBy{
		name:    name,
		key:     key,
		reverse: reverse,
	}, nil
}

func (ob *OrderBy) String() string {
	if ob.reverse {
		return "ORDER BY " + ob.name + " DESC"
	}
	return "ORDER BY " + ob.name
}

func (_ *OrderBy) Kind() Kind {
	return OrderByKind
}

func (ob *OrderBy) Transform(f *frame.Frame) (*frame.Frame, error) {
	return f.SortBy([]string{ob.key}, ob.reverse)
}
