package condition

import (
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/frame"
)

type LimitOffset struct {
	limit  int
	offset int
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func NewLimitOffset(limit, offset int) *LimitOffset {
	return &LimitOffset{
		limit:  abs(limit),
		offset: abs(offset),
	}
}

func (lo *LimitOffset) String() string {
	var s []string
	if lo.limit > 0 {
		s = append(s, fmt.Sprintf("LIMIT %d", lo.limit))
	}
	if lo.offset > 0 {
		s = append(s, fmt.Sprintf("OFFSET %d", lo.offset))
	}
	return strings.Join(s, " ")
}

func (_ *LimitOffset) Kind() Kind {
	return LimitOffsetKind
}

func (lo *LimitOffset) Transform(f *frame.Frame) (*frame.Frame, error) {
	if lo.limit > 0 {
		return f.Slice(lo.offset, lo.offset+lo.limit), nil
	} else if lo.offset > 0 {
		return f.Slice(lo.offset, -1), nil
	}
	return f, nil
}
