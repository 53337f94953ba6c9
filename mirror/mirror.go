// Package mirror keeps an in-memory copy of the tables of a database and keeps it in step with
// the database as rows and schema are changed through it.
package mirror

import (
	"context"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// UpgradeFunc is called after every successful change; usually it reloads the tables from the
// database.
type UpgradeFunc func(ctx context.Context) error

// Snapshot is what was read from one database: the rows of each table, in table order. An
// empty table is a frame with the table's columns and a single all Absent row.
type Snapshot struct {
	Tables []string
	Frames map[string]*frame.Frame
}

// Field is the live metadata of a column, as reported by the database.
type Field struct {
	Number   int
	Type     string
	Required bool
	Default  sql.Value
	Primary  bool

	raw *string
}

// Placeholder returns a frame with cols and one all Absent row, standing in for an empty
// table.
func Placeholder(cols []string) *frame.Frame {
	f := frame.New(cols)
	vals := make([]sql.Value, len(cols))
	for vdx := range vals {
		vals[vdx] = sql.Absent
	}
	f.Append(0, vals)
	return f
}

func contains(ss []string, s string) bool {
	for _, e := range ss {
		if e == s {
			return true
		}
	}
	return false
}
