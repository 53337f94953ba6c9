// Package sqlite is the driver for SQLite databases. By default it uses the pure Go
// modernc.org/sqlite; build with -tags cgo_sqlite to use github.com/mattn/go-sqlite3 instead.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/sqldb"
	"github.com/leftmike/sqlmirror/sql"
)

func init() {
	driver.Register(sql.SQLite,
		func(ctx context.Context, dsn string, opts driver.Options) (driver.Driver, error) {
			return Open(ctx, dsn, opts)
		})
}

// DriverName is the database/sql driver in use: sqlite or sqlite3.
func DriverName() string {
	return driverName
}

// DriverType is purego for modernc.org/sqlite and cgo for mattn/go-sqlite3.
func DriverType() string {
	return driverType
}

var _ driver.Driver = (*Driver)(nil)

type Driver struct {
	*sqldb.Conn
}

func Quote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func Open(ctx context.Context, dsn string, opts driver.Options) (*Driver, error) {
	c, err := sqldb.Open(ctx,
		sqldb.Config{
			Dialect:     sql.SQLite,
			DriverName:  driverName,
			DSN:         dsn,
			AutoCommit:  opts.AutoCommit,
			MaxAttempts: opts.MaxAttempts,
			Quote:       Quote,
		})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"dsn":    dsn,
		"driver": driverType,
	}).Debug("sqlite: open")
	return &Driver{c}, nil
}

func (d *Driver) Version(ctx context.Context) (string, error) {
	vers, err := d.Strings(ctx, driver.VersionCommand, "SELECT sqlite_version()")
	if err != nil {
		return "", err
	} else if len(vers) == 0 {
		return "", nil
	}
	return vers[0], nil
}

func (d *Driver) ShowTables(ctx context.Context) ([]string, error) {
	return d.Strings(ctx, driver.ShowTablesCommand,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' "+
			"ORDER BY name")
}

func (d *Driver) Fields(ctx context.Context, table string) ([]driver.Field, error) {
	f, err := d.Query(ctx, driver.FieldsCommand,
		"SELECT cid, name, type, \"notnull\", dflt_value, pk FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, err
	}

	fields := make([]driver.Field, 0, f.Len())
	for _, r := range f.Rows {
		fld := driver.Field{
			Ordinal: len(fields) + 1,
			Name:    sql.Text(r.Values[1]),
			Type:    strings.ToUpper(sql.Text(r.Values[2])),
			NotNull: sql.Text(r.Values[3]) == "1",
			Primary: sql.Text(r.Values[5]) != "0",
		}
		if r.Values[4] != nil {
			def := sql.Text(r.Values[4])
			fld.Default = &def
		}
		fields = append(fields, fld)
	}
	return fields, nil
}

func (d *Driver) ShowIndex(ctx context.Context, table string) ([]driver.Index, error) {
	f, err := d.Query(ctx, driver.ShowIndexCommand,
		"SELECT name, \"unique\" FROM pragma_index_list(?) ORDER BY seq", table)
	if err != nil {
		return nil, err
	}

	idxs := make([]driver.Index, 0, f.Len())
	for _, r := range f.Rows {
		name := sql.Text(r.Values[0])
		cols, err := d.Strings(ctx, driver.ShowIndexCommand,
			"SELECT name FROM pragma_index_info(?) ORDER BY seqno", name)
		if err != nil {
			return nil, err
		}
		idxs = append(idxs,
			driver.Index{
				Name:    name,
				Columns: cols,
				Unique:  sql.Text(r.Values[1]) == "1",
				Using:   "BTREE",
			})
	}
	return idxs, nil
}

func (d *Driver) ShowForeign(ctx context.Context, table string) ([]driver.Foreign, error) {
	f, err := d.Query(ctx, driver.ShowForeignCommand,
		`SELECT "table", "from", "to", on_update, on_delete FROM pragma_foreign_key_list(?)`,
		table)
	if err != nil {
		return nil, err
	}

	fks := make([]driver.Foreign, 0, f.Len())
	for _, r := range f.Rows {
		from := sql.Text(r.Values[1])
		fks = append(fks,
			driver.Foreign{
				Name:     fmt.Sprintf("%s_%s_fkey", table, from),
				Table:    sql.Text(r.Values[0]),
				From:     from,
				To:       sql.Text(r.Values[2]),
				OnUpdate: sql.Text(r.Values[3]),
				OnDelete: sql.Text(r.Values[4]),
			})
	}
	return fks, nil
}

// CreateForeign is not supported: SQLite only declares foreign keys when a table or column
// is created.
func (d *Driver) CreateForeign(ctx context.Context, table, col, constraint string) error {
	return driver.Unsupported(sql.SQLite, driver.CreateForeignCommand)
}

func (d *Driver) DropIndex(ctx context.Context, table, name string) error {
	_, err := d.Exec(ctx, driver.DropIndexCommand, "DROP INDEX IF EXISTS "+Quote(name))
	return err
}

// SplitDefinitions splits the body of a CREATE TABLE statement into its column and table
// constraint definitions.
func SplitDefinitions(body string) []string {
	var defs []string
	var depth int
	var quote rune
	start := 0
	for i, r := range body {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(':
			depth += 1
		case r == ')':
			depth -= 1
		case r == ',' && depth == 0:
			defs = append(defs, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	if s := strings.TrimSpace(body[start:]); s != "" {
		defs = append(defs, s)
	}
	return defs
}

func definitionName(def string) string {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "\"`[]")
}

// AlterColumn rebuilds table with the definition of col replaced by def; SQLite can not
// alter a column in place. The indexes of the table are recreated.
func (d *Driver) AlterColumn(ctx context.Context, table, col, def string) error {
	ddls, err := d.Strings(ctx, driver.AlterColumnCommand,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return err
	} else if len(ddls) == 0 {
		return sql.Errorf("sqlite: table %s not found", table)
	}
	ddl := ddls[0]
	open := strings.IndexByte(ddl, '(')
	end := strings.LastIndexByte(ddl, ')')
	if open < 0 || end < open {
		return fmt.Errorf("sqlite: unable to parse definition of %s: %s", table, ddl)
	}

	defs := SplitDefinitions(ddl[open+1 : end])
	var found bool
	for ddx, cd := range defs {
		if definitionName(cd) == col {
			defs[ddx] = Quote(col) + " " + def
			found = true
		}
	}
	if !found {
		return sql.Errorf("sqlite: column %s not found in table %s", col, table)
	}

	cols, err := d.ShowColumns(ctx, table)
	if err != nil {
		return err
	}
	idxs, err := d.Strings(ctx, driver.AlterColumnCommand,
		"SELECT sql FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL",
		table)
	if err != nil {
		return err
	}

	tmp := Quote("sqlmirror_alter_" + table)
	colList := make([]string, 0, len(cols))
	for _, c := range cols {
		colList = append(colList, Quote(c))
	}
	stmts := []string{
		"PRAGMA foreign_keys = 0",
		fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", tmp, Quote(table)),
		"DROP TABLE " + Quote(table),
		fmt.Sprintf("CREATE TABLE %s (%s)", Quote(table), strings.Join(defs, ", ")),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", Quote(table),
			strings.Join(colList, ", "), strings.Join(colList, ", "), tmp),
		"DROP TABLE " + tmp,
	}
	stmts = append(stmts, idxs...)
	stmts = append(stmts, "PRAGMA foreign_keys = 1")

	for _, stmt := range stmts {
		_, err = d.Exec(ctx, driver.AlterColumnCommand, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}
