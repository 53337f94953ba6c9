package repl

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/olekukonko/tablewriter"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/mirror"
	"github.com/leftmike/sqlmirror/sql"
)

// Query selects rows from a mirrored table.
type Query struct {
	Columns []string
	// Where is an expression, such as age > 18, that starts with the column it filters.
	Where string
	Order string
	Desc  bool
	Limit int
	// SQL reads the rows from the database instead of from the mirror.
	SQL bool
}

var leadingColumn = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)`)

// Where returns a condition with a single where clause on tbl for expr.
func Where(tbl condition.Table, expr string) (*condition.Condition, error) {
	m := leadingColumn.FindStringSubmatch(expr)
	if m == nil {
		return nil, sql.Errorf("where: expected a column at the start of %q", expr)
	}
	cond := condition.New(tbl)
	err := cond.Where([]condition.Item{
		{
			Key: m[1],
			Build: func(col condition.Column) (condition.Clause, error) {
				return condition.NewWhere(col, expr, nil, false)
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return cond, nil
}

func (q Query) condition(tbl *mirror.Table) (*condition.Condition, error) {
	cond := condition.New(tbl)
	if q.Where != "" {
		var err error
		cond, err = Where(tbl, q.Where)
		if err != nil {
			return nil, err
		}
	}
	if q.Order != "" {
		col, ok := tbl.LookupColumn(q.Order)
		if !ok {
			return nil, sql.Errorf("order by: column %s does not exist in table %s", q.Order,
				tbl.Name())
		}
		ob, err := condition.NewOrderBy(col, q.Desc)
		if err != nil {
			return nil, err
		}
		if err := cond.OrderBy(ob); err != nil {
			return nil, err
		}
	}
	if q.Limit > 0 {
		if err := cond.LimitOffset(condition.NewLimitOffset(q.Limit, 0)); err != nil {
			return nil, err
		}
	}
	return cond, nil
}

// Get runs q against tbl.
func (q Query) Get(ctx context.Context, tbl *mirror.Table) (*frame.Frame, error) {
	cond, err := q.condition(tbl)
	if err != nil {
		return nil, err
	}
	return tbl.Get(ctx,
		mirror.GetOptions{
			Columns:   q.Columns,
			Condition: cond,
			SQL:       q.SQL,
		})
}

// PrintFrame writes f as a table followed by the number of rows.
func PrintFrame(w io.Writer, f *frame.Frame) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(f.Columns)

	row := make([]string, len(f.Columns))
	for _, r := range f.Rows {
		for cdx, v := range r.Values {
			row[cdx] = sql.Text(v)
		}
		tw.Append(row)
	}
	tw.Render()
	fmt.Fprintf(w, "(%d rows)\n", f.Len())
}
