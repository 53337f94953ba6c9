// Package mysql is the driver for MySQL and MariaDB databases.
package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/sqldb"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

func init() {
	driver.Register(sql.MySQL,
		func(ctx context.Context, dsn string, opts driver.Options) (driver.Driver, error) {
			return Open(ctx, dsn, opts)
		})
}

var _ driver.Driver = (*Driver)(nil)

type Driver struct {
	*sqldb.Conn
}

func Quote(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// DSN parses dsn and turns on the options the driver depends on.
func DSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", sql.Errorf("mysql: bad dsn: %s", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func Open(ctx context.Context, dsn string, opts driver.Options) (*Driver, error) {
	dsn, err := DSN(dsn)
	if err != nil {
		return nil, err
	}
	c, err := sqldb.Open(ctx,
		sqldb.Config{
			Dialect:     sql.MySQL,
			DriverName:  "mysql",
			DSN:         dsn,
			AutoCommit:  opts.AutoCommit,
			MaxAttempts: opts.MaxAttempts,
			Quote:       Quote,
		})
	if err != nil {
		return nil, err
	}
	log.Debug("mysql: open")
	return &Driver{c}, nil
}

func (d *Driver) Version(ctx context.Context) (string, error) {
	vers, err := d.Strings(ctx, driver.VersionCommand, "SELECT VERSION()")
	if err != nil {
		return "", err
	} else if len(vers) == 0 {
		return "", nil
	}
	return vers[0], nil
}

func (d *Driver) ShowTables(ctx context.Context) ([]string, error) {
	return d.Strings(ctx, driver.ShowTablesCommand,
		"SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() "+
			"AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME")
}

func (d *Driver) Fields(ctx context.Context, table string) ([]driver.Field, error) {
	f, err := d.Query(ctx, driver.FieldsCommand,
		`SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`, table)
	if err != nil {
		return nil, err
	}
	return fields(f), nil
}

// fields converts rows of (name, type, nullable, default, key) to fields.
func fields(f *frame.Frame) []driver.Field {
	flds := make([]driver.Field, 0, f.Len())
	for _, r := range f.Rows {
		fld := driver.Field{
			Ordinal: len(flds) + 1,
			Name:    sql.Text(r.Values[0]),
			Type:    strings.ToUpper(sql.Text(r.Values[1])),
			NotNull: strings.EqualFold(sql.Text(r.Values[2]), "NO"),
			Primary: strings.EqualFold(sql.Text(r.Values[4]), "PRI"),
		}
		if r.Values[3] != nil {
			def := sql.Text(r.Values[3])
			fld.Default = &def
		}
		flds = append(flds, fld)
	}
	return flds
}

func (d *Driver) AlterColumn(ctx context.Context, table, col, def string) error {
	_, err := d.Exec(ctx, driver.AlterColumnCommand,
		fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", Quote(table), Quote(col), def))
	return err
}

func (d *Driver) DropIndex(ctx context.Context, table, name string) error {
	_, err := d.Exec(ctx, driver.DropIndexCommand,
		fmt.Sprintf("DROP INDEX %s ON %s", Quote(name), Quote(table)))
	return err
}

func (d *Driver) ShowIndex(ctx context.Context, table string) ([]driver.Index, error) {
	f, err := d.Query(ctx, driver.ShowIndexCommand,
		`SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME, INDEX_TYPE
FROM INFORMATION_SCHEMA.STATISTICS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`, table)
	if err != nil {
		return nil, err
	}
	return indexes(f), nil
}

// indexes groups rows of (name, non unique, column, type) into indexes.
func indexes(f *frame.Frame) []driver.Index {
	var idxs []driver.Index
	for _, r := range f.Rows {
		name := sql.Text(r.Values[0])
		if len(idxs) == 0 || idxs[len(idxs)-1].Name != name {
			idxs = append(idxs,
				driver.Index{
					Name:   name,
					Unique: sql.Text(r.Values[1]) == "0",
					Using:  sql.Text(r.Values[3]),
				})
		}
		idxs[len(idxs)-1].Columns = append(idxs[len(idxs)-1].Columns, sql.Text(r.Values[2]))
	}
	return idxs
}

func (d *Driver) ShowForeign(ctx context.Context, table string) ([]driver.Foreign, error) {
	f, err := d.Query(ctx, driver.ShowForeignCommand,
		`SELECT k.CONSTRAINT_NAME, k.REFERENCED_TABLE_NAME, k.COLUMN_NAME,
	k.REFERENCED_COLUMN_NAME, r.UPDATE_RULE, r.DELETE_RULE
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS r
	ON k.CONSTRAINT_NAME = r.CONSTRAINT_NAME AND k.CONSTRAINT_SCHEMA = r.CONSTRAINT_SCHEMA
WHERE k.TABLE_SCHEMA = DATABASE() AND k.TABLE_NAME = ?`, table)
	if err != nil {
		return nil, err
	}

	fks := make([]driver.Foreign, 0, f.Len())
	for _, r := range f.Rows {
		fks = append(fks,
			driver.Foreign{
				Name:     sql.Text(r.Values[0]),
				Table:    sql.Text(r.Values[1]),
				From:     sql.Text(r.Values[2]),
				To:       sql.Text(r.Values[3]),
				OnUpdate: sql.Text(r.Values[4]),
				OnDelete: sql.Text(r.Values[5]),
			})
	}
	return fks, nil
}

func (d *Driver) routines(ctx context.Context, cmd driver.Command,
	kind string) ([]driver.Routine, error) {

	f, err := d.Query(ctx, cmd,
		`SELECT r.ROUTINE_NAME, p.PARAMETER_MODE, p.PARAMETER_NAME, p.DTD_IDENTIFIER,
	r.DTD_IDENTIFIER
FROM INFORMATION_SCHEMA.ROUTINES r
LEFT JOIN INFORMATION_SCHEMA.PARAMETERS p
	ON r.SPECIFIC_NAME = p.SPECIFIC_NAME AND r.ROUTINE_SCHEMA = p.SPECIFIC_SCHEMA
	AND p.ORDINAL_POSITION > 0
WHERE r.ROUTINE_SCHEMA = DATABASE() AND r.ROUTINE_TYPE = ?
ORDER BY r.ROUTINE_NAME, p.ORDINAL_POSITION`, kind)
	if err != nil {
		return nil, err
	}
	return sqldb.Routines(f), nil
}

func (d *Driver) ShowProcedures(ctx context.Context) ([]driver.Routine, error) {
	return d.routines(ctx, driver.ShowProcedureCommand, "PROCEDURE")
}

func (d *Driver) ShowFunctions(ctx context.Context) ([]driver.Routine, error) {
	return d.routines(ctx, driver.ShowFunctionCommand, "FUNCTION")
}

func definer(d string) string {
	if d == "" {
		return ""
	}
	return "DEFINER = " + d + " "
}

func (d *Driver) CreateProcedure(ctx context.Context, r driver.Routine) error {
	_, err := d.Exec(ctx, driver.CreateProcedureCommand,
		fmt.Sprintf("CREATE %sPROCEDURE %s%s %s", definer(r.Definer), Quote(r.Name),
			d.ParamList(r.Params), r.Body))
	return err
}

func (d *Driver) CreateFunction(ctx context.Context, r driver.Routine) error {
	_, err := d.Exec(ctx, driver.CreateFunctionCommand,
		fmt.Sprintf("CREATE %sFUNCTION %s%s RETURNS %s %s", definer(r.Definer), Quote(r.Name),
			d.ParamList(r.Params), r.Returns, r.Body))
	return err
}

func (d *Driver) RunProcedure(ctx context.Context, name string,
	args []sql.Value) (*frame.Frame, error) {

	return d.Query(ctx, driver.RunProcedureCommand,
		"CALL "+Quote(name)+sqldb.Placeholders(len(args)), sqldb.Args(args)...)
}

func (d *Driver) ShowTriggers(ctx context.Context, table string) ([]driver.Trigger, error) {
	f, err := d.Query(ctx, driver.ShowTriggerCommand,
		`SELECT TRIGGER_NAME, EVENT_OBJECT_TABLE, ACTION_TIMING, EVENT_MANIPULATION,
	ACTION_STATEMENT
FROM INFORMATION_SCHEMA.TRIGGERS
WHERE TRIGGER_SCHEMA = DATABASE() AND EVENT_OBJECT_TABLE = ?
ORDER BY TRIGGER_NAME`, table)
	if err != nil {
		return nil, err
	}
	return triggers(f), nil
}

// triggers converts rows of (name, table, timing, event, body) to triggers.
func triggers(f *frame.Frame) []driver.Trigger {
	trigs := make([]driver.Trigger, 0, f.Len())
	for _, r := range f.Rows {
		trigs = append(trigs,
			driver.Trigger{
				Name:   sql.Text(r.Values[0]),
				Table:  sql.Text(r.Values[1]),
				Timing: strings.ToUpper(sql.Text(r.Values[2])),
				Event:  strings.ToUpper(sql.Text(r.Values[3])),
				Body:   sql.Text(r.Values[4]),
			})
	}
	return trigs
}

func (d *Driver) CreateTrigger(ctx context.Context, trig driver.Trigger) error {
	_, err := d.Exec(ctx, driver.CreateTriggerCommand,
		fmt.Sprintf("CREATE %sTRIGGER %s %s %s ON %s FOR EACH ROW %s", definer(trig.Definer),
			Quote(trig.Name), trig.Timing, trig.Event, Quote(trig.Table), trig.Body))
	return err
}

func (d *Driver) DropTrigger(ctx context.Context, table, name string, ifExists bool) error {
	q := "DROP TRIGGER "
	if ifExists {
		q += "IF EXISTS "
	}
	_, err := d.Exec(ctx, driver.DropTriggerCommand, q+Quote(name))
	return err
}
