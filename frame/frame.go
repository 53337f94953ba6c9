package frame

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leftmike/sqlmirror/sql"
)

// Row is one row of a Frame; Index is the row's label in the table it came from and is
// preserved across filtering, sorting, and slicing.
type Row struct {
	Index  int64
	Values []sql.Value
}

// Frame is an ordered set of rows over named columns.
type Frame struct {
	Columns []string
	Rows    []Row
}

func New(cols []string) *Frame {
	return &Frame{
		Columns: append([]string(nil), cols...),
	}
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

func (f *Frame) ColumnIndex(col string) int {
	for cdx, c := range f.Columns {
		if c == col {
			return cdx
		}
	}
	return -1
}

func (f *Frame) HasColumn(col string) bool {
	return f.ColumnIndex(col) >= 0
}

func (f *Frame) Append(idx int64, vals []sql.Value) {
	f.Rows = append(f.Rows, Row{Index: idx, Values: vals})
}

// Value returns the value of col in the row at position rdx.
func (f *Frame) Value(rdx int, col string) (sql.Value, error) {
	cdx := f.ColumnIndex(col)
	if cdx < 0 {
		return nil, fmt.Errorf("frame: column %s not found", col)
	}
	return f.Rows[rdx].Values[cdx], nil
}

// Column returns a copy of the values of col in row order.
func (f *Frame) Column(col string) ([]sql.Value, error) {
	cdx := f.ColumnIndex(col)
	if cdx < 0 {
		return nil, fmt.Errorf("frame: column %s not found", col)
	}
	vals := make([]sql.Value, 0, len(f.Rows))
	for _, r := range f.Rows {
		vals = append(vals, r.Values[cdx])
	}
	return vals, nil
}

func (f *Frame) Indexes() []int64 {
	idxs := make([]int64, 0, len(f.Rows))
	for _, r := range f.Rows {
		idxs = append(idxs, r.Index)
	}
	return idxs
}

func (f *Frame) Copy() *Frame {
	cf := New(f.Columns)
	cf.Rows = make([]Row, 0, len(f.Rows))
	for _, r := range f.Rows {
		cf.Rows = append(cf.Rows,
			Row{Index: r.Index, Values: append([]sql.Value(nil), r.Values...)})
	}
	return cf
}

// Slice returns the rows at positions [lo:hi); hi < 0 means to the end. Out of range bounds
// are clamped.
func (f *Frame) Slice(lo, hi int) *Frame {
	n := len(f.Rows)
	if hi < 0 || hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	sf := New(f.Columns)
	sf.Rows = append([]Row(nil), f.Rows[lo:hi]...)
	return sf
}

// Project returns a frame with only cols, in that order.
func (f *Frame) Project(cols []string) (*Frame, error) {
	cdxs := make([]int, 0, len(cols))
	for _, c := range cols {
		cdx := f.ColumnIndex(c)
		if cdx < 0 {
			return nil, fmt.Errorf("frame: column %s not found", c)
		}
		cdxs = append(cdxs, cdx)
	}

	pf := New(cols)
	pf.Rows = make([]Row, 0, len(f.Rows))
	for _, r := range f.Rows {
		vals := make([]sql.Value, 0, len(cdxs))
		for _, cdx := range cdxs {
			vals = append(vals, r.Values[cdx])
		}
		pf.Rows = append(pf.Rows, Row{Index: r.Index, Values: vals})
	}
	return pf, nil
}

func rowKey(vals []sql.Value) string {
	var b strings.Builder
	for _, v := range vals {
		fmt.Fprintf(&b, "%T:%s\x00", v, sql.Format(v))
	}
	return b.String()
}

// Distinct keeps the first of each set of rows with equal values.
func (f *Frame) Distinct() *Frame {
	seen := map[string]struct{}{}
	df := New(f.Columns)
	for _, r := range f.Rows {
		k := rowKey(r.Values)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		df.Rows = append(df.Rows, r)
	}
	return df
}

func (f *Frame) Filter(keep func(r Row) (bool, error)) (*Frame, error) {
	ff := New(f.Columns)
	for _, r := range f.Rows {
		ok, err := keep(r)
		if err != nil {
			return nil, err
		}
		if ok {
			ff.Rows = append(ff.Rows, r)
		}
	}
	return ff, nil
}

// SortBy stable sorts the rows by the values of cols; NULL and Absent always sort last.
func (f *Frame) SortBy(cols []string, reverse bool) (*Frame, error) {
	cdxs := make([]int, 0, len(cols))
	for _, c := range cols {
		cdx := f.ColumnIndex(c)
		if cdx < 0 {
			return nil, fmt.Errorf("frame: column %s not found", c)
		}
		cdxs = append(cdxs, cdx)
	}

	sf := f.Slice(0, -1)
	sort.SliceStable(sf.Rows,
		func(i, j int) bool {
			for _, cdx := range cdxs {
				vi := sf.Rows[i].Values[cdx]
				vj := sf.Rows[j].Values[cdx]
				if sql.IsEmpty(vi) || sql.IsEmpty(vj) {
					if sql.IsEmpty(vi) == sql.IsEmpty(vj) {
						continue
					}
					return sql.IsEmpty(vj)
				}
				cmp := sql.Compare(vi, vj)
				if cmp == 0 {
					continue
				}
				if reverse {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	return sf, nil
}

// Maps returns each row as a map from column name to value.
func (f *Frame) Maps() []map[string]sql.Value {
	maps := make([]map[string]sql.Value, 0, len(f.Rows))
	for _, r := range f.Rows {
		m := make(map[string]sql.Value, len(f.Columns))
		for cdx, c := range f.Columns {
			m[c] = r.Values[cdx]
		}
		maps = append(maps, m)
	}
	return maps
}
