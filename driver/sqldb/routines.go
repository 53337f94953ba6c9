package sqldb

import (
	"strings"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// ParamList is the parenthesized parameter list of a CREATE PROCEDURE or CREATE FUNCTION.
func (c *Conn) ParamList(params []driver.Param) string {
	ps := make([]string, 0, len(params))
	for _, p := range params {
		s := c.Quote(p.Name) + " " + p.Type
		if p.Mode != "" {
			s = strings.ToUpper(p.Mode) + " " + s
		}
		ps = append(ps, s)
	}
	return "(" + strings.Join(ps, ", ") + ")"
}

// Routines groups rows of (name, mode, parameter, type, returns) into routines, one per
// name in the order they first appear. A row with a NULL parameter is a routine without
// parameters.
func Routines(f *frame.Frame) []driver.Routine {
	var rs []driver.Routine
	byName := map[string]int{}
	for _, r := range f.Rows {
		name := sql.Text(r.Values[0])
		rdx, ok := byName[name]
		if !ok {
			rdx = len(rs)
			byName[name] = rdx
			rs = append(rs, driver.Routine{Name: name})
			if r.Values[4] != nil {
				rs[rdx].Returns = strings.ToUpper(sql.Text(r.Values[4]))
			}
		}
		if r.Values[2] == nil {
			continue
		}
		p := driver.Param{
			Name: sql.Text(r.Values[2]),
			Type: strings.ToUpper(sql.Text(r.Values[3])),
		}
		if r.Values[1] != nil {
			p.Mode = sql.Text(r.Values[1])
		}
		rs[rdx].Params = append(rs[rdx].Params, p)
	}
	return rs
}

// Placeholders returns (?, ?, ...) with n placeholders.
func Placeholders(n int) string {
	return placeholders(n)
}
