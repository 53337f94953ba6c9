package mirror

import (
	"fmt"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// merge returns the inner join of left and right on left.lcol = right.rcol. Column names in
// both get _x and _y suffixes, except for the join column when lcol and rcol are the same.
func merge(left, right *frame.Frame, lcol, rcol string) (*frame.Frame, error) {
	lcdx := left.ColumnIndex(lcol)
	if lcdx < 0 {
		return nil, fmt.Errorf("mirror: merge: column %s not found", lcol)
	}
	rcdx := right.ColumnIndex(rcol)
	if rcdx < 0 {
		return nil, fmt.Errorf("mirror: merge: column %s not found", rcol)
	}
	same := lcol == rcol

	var cols []string
	for _, c := range left.Columns {
		if right.HasColumn(c) && !(same && c == lcol) {
			c += "_x"
		}
		cols = append(cols, c)
	}
	var rcdxs []int
	for cdx, c := range right.Columns {
		if same && cdx == rcdx {
			continue
		}
		if left.HasColumn(c) {
			c += "_y"
		}
		cols = append(cols, c)
		rcdxs = append(rcdxs, cdx)
	}

	f := frame.New(cols)
	var idx int64
	for _, lr := range left.Rows {
		lv := lr.Values[lcdx]
		if sql.IsEmpty(lv) {
			continue
		}
		for _, rr := range right.Rows {
			if !sql.Equal(lv, rr.Values[rcdx]) {
				continue
			}
			vals := append([]sql.Value(nil), lr.Values...)
			for _, cdx := range rcdxs {
				vals = append(vals, rr.Values[cdx])
			}
			f.Append(idx, vals)
			idx += 1
		}
	}
	return f, nil
}
