package condition

import (
	"sort"
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type GroupBy struct {
	names []string
	keys  []string
}

// NewGroupBy groups by one or more columns, each a string or a Column; repeated columns are
// ignored.
func NewGroupBy(cols ...interface{}) (*GroupBy, error) {
	if len(cols) == 0 {
		return nil, sql.Errorf("group by: at least one column is required")
	}

	gb := &GroupBy{}
	seen := map[string]struct{}{}
	for _, c := range cols {
		name, key, err := columnNames(c)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		gb.names = append(gb.names, name)
		gb.keys = append(gb.keys, key)
	}
	return gb, nil
}

func (gb *GroupBy) String() string {
	return "GROUP BY " + strings.Join(gb.names, ",")
}

func (_ *GroupBy) Kind() Kind {
	return GroupByKind
}

func (gb *GroupBy) Keys() []string {
	return gb.keys
}

// Transform keeps the first row of each group, with only the grouping columns; groups are
// ordered by their key values.
func (gb *GroupBy) Transform(f *frame.Frame) (*frame.Frame, error) {
	pf, err := f.Project(gb.keys)
	if err != nil {
		return nil, err
	}

	gf := frame.New(gb.keys)
	seen := map[string]struct{}{}
	for _, r := range pf.Rows {
		k := groupKey(r.Values)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		gf.Rows = append(gf.Rows, r)
	}

	sort.SliceStable(gf.Rows,
		func(i, j int) bool {
			for cdx := range gb.keys {
				cmp := sql.Compare(gf.Rows[i].Values[cdx], gf.Rows[j].Values[cdx])
				if cmp != 0 {
					return cmp < 0
				}
			}
			return false
		})
	return gf, nil
}

func groupKey(vals []sql.Value) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(valueKey(v))
		b.WriteByte(0)
	}
	return b.String()
}

// valueKey is equal for equal values; integers and floats with the same value have the same
// key.
func valueKey(v sql.Value) string {
	switch v := v.(type) {
	case nil:
		return "N"
	case sql.Int64Value:
		return "n" + sql.Float64Value(v).String()
	case sql.Float64Value:
		return "n" + v.String()
	}
	if sql.IsAbsent(v) {
		return "A"
	}
	return "v" + sql.Format(v)
}
