package condition

import (
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	OuterJoin
)

var joinTypes = map[JoinType]string{
	InnerJoin: "INNER JOIN",
	LeftJoin:  "LEFT JOIN",
	RightJoin: "RIGHT JOIN",
	OuterJoin: "FULL OUTER JOIN",
}

var joinHows = map[string]JoinType{
	"inner": InnerJoin,
	"left":  LeftJoin,
	"right": RightJoin,
	"outer": OuterJoin,
}

func (jt JoinType) String() string {
	return joinTypes[jt]
}

type Join struct {
	left   Source
	right  Source
	column string
	how    JoinType
	nan    bool
}

// NewJoin joins left and right on column, which both must have. how is inner, left, right,
// or outer. With nan, unmatched cells are Absent instead of NULL.
func NewJoin(left, right Source, column string, how string, nan bool) (*Join, error) {
	if left == nil || right == nil {
		return nil, sql.Errorf("join: missing table")
	}
	jt, ok := joinHows[strings.ToLower(how)]
	if !ok {
		return nil, sql.Errorf("join: how must be inner, left, right, or outer: %q", how)
	}
	if !left.HasColumn(column) {
		return nil, sql.Errorf("join: column %s not in table %s", column, left.Name())
	}
	if !right.HasColumn(column) {
		return nil, sql.Errorf("join: column %s not in table %s", column, right.Name())
	}
	return &Join{
		left:   left,
		right:  right,
		column: column,
		how:    jt,
		nan:    nan,
	}, nil
}

func (j *Join) String() string {
	return fmt.Sprintf("%s %s ON %s.%s=%s.%s", j.how, j.right.Name(), j.left.Name(), j.column,
		j.right.Name(), j.column)
}

func (_ *Join) Kind() Kind {
	return JoinKind
}

func (j *Join) Type() JoinType {
	return j.how
}

// Transform merges the input, or the left table if the input does not have the join column,
// with the right table. Rows are numbered from zero in the result.
func (j *Join) Transform(f *frame.Frame) (*frame.Frame, error) {
	lf := f
	if lf == nil || !lf.HasColumn(j.column) {
		lf = j.left.Frame()
	}
	rf := j.right.Frame()

	lcdx := lf.ColumnIndex(j.column)
	rcdx := rf.ColumnIndex(j.column)
	if lcdx < 0 || rcdx < 0 {
		return nil, fmt.Errorf("join: column %s not found", j.column)
	}

	lnames := map[string]struct{}{}
	for _, c := range lf.Columns {
		lnames[c] = struct{}{}
	}
	rnames := map[string]struct{}{}
	for _, c := range rf.Columns {
		rnames[c] = struct{}{}
	}

	var cols []string
	for _, c := range lf.Columns {
		if _, ok := rnames[c]; ok && c != j.column {
			c += "_x"
		}
		cols = append(cols, c)
	}
	var rcdxs []int
	for cdx, c := range rf.Columns {
		if cdx == rcdx {
			continue
		}
		if _, ok := lnames[c]; ok {
			c += "_y"
		}
		cols = append(cols, c)
		rcdxs = append(rcdxs, cdx)
	}

	fill := sql.Value(nil)
	if j.nan {
		fill = sql.Absent
	}

	matches := map[string][]int{}
	for rdx, r := range rf.Rows {
		v := r.Values[rcdx]
		if sql.IsEmpty(v) {
			continue
		}
		k := valueKey(v)
		matches[k] = append(matches[k], rdx)
	}

	jf := frame.New(cols)
	add := func(lrow, rrow []sql.Value) {
		vals := make([]sql.Value, 0, len(cols))
		if lrow != nil {
			vals = append(vals, lrow...)
		} else {
			for cdx := range lf.Columns {
				if cdx == lcdx {
					vals = append(vals, rrow[rcdx])
				} else {
					vals = append(vals, fill)
				}
			}
		}
		for _, cdx := range rcdxs {
			if rrow != nil {
				vals = append(vals, rrow[cdx])
			} else {
				vals = append(vals, fill)
			}
		}
		jf.Append(int64(len(jf.Rows)), vals)
	}

	matched := make([]bool, len(rf.Rows))
	if j.how == RightJoin {
		lmatches := map[string][]int{}
		for ldx, r := range lf.Rows {
			v := r.Values[lcdx]
			if sql.IsEmpty(v) {
				continue
			}
			k := valueKey(v)
			lmatches[k] = append(lmatches[k], ldx)
		}
		for _, r := range rf.Rows {
			ldxs := lmatches[valueKey(r.Values[rcdx])]
			if sql.IsEmpty(r.Values[rcdx]) || len(ldxs) == 0 {
				add(nil, r.Values)
				continue
			}
			for _, ldx := range ldxs {
				add(lf.Rows[ldx].Values, r.Values)
			}
		}
		return jf, nil
	}

	for _, r := range lf.Rows {
		v := r.Values[lcdx]
		var rdxs []int
		if !sql.IsEmpty(v) {
			rdxs = matches[valueKey(v)]
		}
		if len(rdxs) == 0 {
			if j.how == LeftJoin || j.how == OuterJoin {
				add(r.Values, nil)
			}
			continue
		}
		for _, rdx := range rdxs {
			matched[rdx] = true
			add(r.Values, rf.Rows[rdx].Values)
		}
	}
	if j.how == OuterJoin {
		for rdx, r := range rf.Rows {
			if !matched[rdx] {
				add(nil, r.Values)
			}
		}
	}
	return jf, nil
}
