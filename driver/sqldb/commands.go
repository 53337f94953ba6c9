package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

func (c *Conn) Version(ctx context.Context) (string, error) {
	return "", driver.Unsupported(c.cfg.Dialect, driver.VersionCommand)
}

// SelectStatement returns the SELECT for table, with clauses appended as is.
func (c *Conn) SelectStatement(table string, cols []string, distinct bool,
	clauses string) string {

	var b strings.Builder
	b.WriteString("SELECT ")
	if distinct {
		b.WriteString("DISTINCT ")
	}
	if len(cols) == 0 {
		b.WriteByte('*')
	} else {
		b.WriteString(c.quoteList(cols))
	}
	fmt.Fprintf(&b, " FROM %s", c.Quote(table))
	return c.Statement(b.String(), clauses)
}

func (c *Conn) Select(ctx context.Context, table string, cols []string, distinct bool,
	clauses string) (*frame.Frame, error) {

	return c.query(ctx, driver.SelectCommand, c.SelectStatement(table, cols, distinct, clauses),
		nil)
}

func (c *Conn) Insert(ctx context.Context, table string, cols []string,
	rows [][]sql.Value) (int64, error) {

	if len(rows) == 0 {
		return 0, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", c.Quote(table), c.quoteList(cols))
	args := make([]interface{}, 0, len(rows)*len(cols))
	for rdx, row := range rows {
		if len(row) != len(cols) {
			return 0, sql.Errorf("%s: row %d has %d values; want %d", table, rdx, len(row),
				len(cols))
		}
		if rdx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders(len(cols)))
		args = append(args, Args(row)...)
	}
	return c.Exec(ctx, driver.InsertCommand, b.String(), args...)
}

// UpdateStatement returns the UPDATE of cols in table with one placeholder per column; the
// clauses are appended after the placeholders are bound.
func (c *Conn) UpdateStatement(table string, cols []string, clauses string) string {
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		sets = append(sets, c.Quote(col)+" = ?")
	}
	return c.Statement(fmt.Sprintf("UPDATE %s SET %s", c.Quote(table), strings.Join(sets, ", ")),
		clauses)
}

func (c *Conn) Update(ctx context.Context, table string, cols []string, vals []sql.Value,
	clauses string) (int64, error) {

	if len(cols) != len(vals) {
		return 0, fmt.Errorf("sqldb: update %s: %d columns and %d values", table, len(cols),
			len(vals))
	}
	if len(cols) == 0 {
		return 0, nil
	}
	return c.exec(ctx, driver.UpdateCommand, c.UpdateStatement(table, cols, clauses),
		Args(vals))
}

func (c *Conn) DeleteStatement(table string, clauses string) string {
	return c.Statement("DELETE FROM "+c.Quote(table), clauses)
}

func (c *Conn) Delete(ctx context.Context, table string, clauses string) (int64, error) {
	return c.exec(ctx, driver.DeleteCommand, c.DeleteStatement(table, clauses), nil)
}

func (c *Conn) Create(ctx context.Context, table string, defs []string, ifNotExists bool,
	options string) error {

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	fmt.Fprintf(&b, "%s (%s)", c.Quote(table), strings.Join(defs, ", "))
	if options != "" {
		b.WriteByte(' ')
		b.WriteString(options)
	}
	_, err := c.Exec(ctx, driver.CreateCommand, b.String())
	return err
}

func (c *Conn) Drop(ctx context.Context, table string, ifExists bool) error {
	q := "DROP TABLE "
	if ifExists {
		q += "IF EXISTS "
	}
	_, err := c.Exec(ctx, driver.DropCommand, q+c.Quote(table))
	return err
}

func (c *Conn) RenameTable(ctx context.Context, table, name string) error {
	_, err := c.Exec(ctx, driver.RenameTableCommand,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", c.Quote(table), c.Quote(name)))
	return err
}

func (c *Conn) ShowTables(ctx context.Context) ([]string, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.ShowTablesCommand)
}

// ShowColumns returns the column names of table, in order, from an empty select.
func (c *Conn) ShowColumns(ctx context.Context, table string) ([]string, error) {
	f, err := c.Query(ctx, driver.ShowColumnsCommand,
		fmt.Sprintf("SELECT * FROM %s LIMIT 0", c.Quote(table)))
	if err != nil {
		return nil, err
	}
	return f.Columns, nil
}

func (c *Conn) Fields(ctx context.Context, table string) ([]driver.Field, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.FieldsCommand)
}

func (c *Conn) AddColumn(ctx context.Context, table, col, def string) error {
	_, err := c.Exec(ctx, driver.AddColumnCommand,
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.Quote(table), c.Quote(col), def))
	return err
}

func (c *Conn) AlterColumn(ctx context.Context, table, col, def string) error {
	return driver.Unsupported(c.cfg.Dialect, driver.AlterColumnCommand)
}

func (c *Conn) DropColumn(ctx context.Context, table, col string) error {
	_, err := c.Exec(ctx, driver.DropColumnCommand,
		fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", c.Quote(table), c.Quote(col)))
	return err
}

func (c *Conn) RenameColumn(ctx context.Context, table, col, name string) error {
	_, err := c.Exec(ctx, driver.RenameColumnCommand,
		fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", c.Quote(table), c.Quote(col),
			c.Quote(name)))
	return err
}

func (c *Conn) CreateIndex(ctx context.Context, stmt string) error {
	_, err := c.Exec(ctx, driver.CreateIndexCommand, stmt)
	return err
}

func (c *Conn) DropIndex(ctx context.Context, table, name string) error {
	_, err := c.Exec(ctx, driver.DropIndexCommand, "DROP INDEX "+c.Quote(name))
	return err
}

func (c *Conn) ShowIndex(ctx context.Context, table string) ([]driver.Index, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.ShowIndexCommand)
}

func (c *Conn) ShowForeign(ctx context.Context, table string) ([]driver.Foreign, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.ShowForeignCommand)
}

// CreateForeign adds constraint to table. A column constraint (REFERENCES t (c)) is added
// as a foreign key on col.
func (c *Conn) CreateForeign(ctx context.Context, table, col, constraint string) error {
	if strings.HasPrefix(constraint, "REFERENCES ") {
		constraint = fmt.Sprintf("FOREIGN KEY (%s) %s", c.Quote(col), constraint)
	}
	_, err := c.Exec(ctx, driver.CreateForeignCommand,
		fmt.Sprintf("ALTER TABLE %s ADD %s", c.Quote(table), constraint))
	return err
}

func (c *Conn) ShowProcedures(ctx context.Context) ([]driver.Routine, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.ShowProcedureCommand)
}

func (c *Conn) CreateProcedure(ctx context.Context, r driver.Routine) error {
	return driver.Unsupported(c.cfg.Dialect, driver.CreateProcedureCommand)
}

func (c *Conn) RunProcedure(ctx context.Context, name string,
	args []sql.Value) (*frame.Frame, error) {

	return nil, driver.Unsupported(c.cfg.Dialect, driver.RunProcedureCommand)
}

func (c *Conn) DropProcedure(ctx context.Context, name string, ifExists bool) error {
	return c.dropRoutine(ctx, driver.DropProcedureCommand, "PROCEDURE", name, ifExists)
}

func (c *Conn) ShowFunctions(ctx context.Context) ([]driver.Routine, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.ShowFunctionCommand)
}

func (c *Conn) CreateFunction(ctx context.Context, r driver.Routine) error {
	return driver.Unsupported(c.cfg.Dialect, driver.CreateFunctionCommand)
}

// RunFunction selects name(args...) and returns the single value.
func (c *Conn) RunFunction(ctx context.Context, name string,
	args []sql.Value) (sql.Value, error) {

	if !c.cfg.Dialect.Routines() {
		return nil, driver.Unsupported(c.cfg.Dialect, driver.RunFunctionCommand)
	}
	f, err := c.Query(ctx, driver.RunFunctionCommand,
		fmt.Sprintf("SELECT %s%s", c.Quote(name), placeholders(len(args))), Args(args)...)
	if err != nil {
		return nil, err
	}
	if f.Len() == 0 || len(f.Columns) == 0 {
		return nil, nil
	}
	return f.Rows[0].Values[0], nil
}

func (c *Conn) DropFunction(ctx context.Context, name string, ifExists bool) error {
	return c.dropRoutine(ctx, driver.DropFunctionCommand, "FUNCTION", name, ifExists)
}

func (c *Conn) dropRoutine(ctx context.Context, cmd driver.Command, kind, name string,
	ifExists bool) error {

	if !c.cfg.Dialect.Routines() {
		return driver.Unsupported(c.cfg.Dialect, cmd)
	}
	q := "DROP " + kind + " "
	if ifExists {
		q += "IF EXISTS "
	}
	_, err := c.Exec(ctx, cmd, q+c.Quote(name))
	return err
}

func (c *Conn) ShowTriggers(ctx context.Context, table string) ([]driver.Trigger, error) {
	return nil, driver.Unsupported(c.cfg.Dialect, driver.ShowTriggerCommand)
}

func (c *Conn) CreateTrigger(ctx context.Context, trig driver.Trigger) error {
	return driver.Unsupported(c.cfg.Dialect, driver.CreateTriggerCommand)
}

func (c *Conn) DropTrigger(ctx context.Context, table, name string, ifExists bool) error {
	return driver.Unsupported(c.cfg.Dialect, driver.DropTriggerCommand)
}

func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	c.logger(driver.CommitCommand).Debug("COMMIT")
	err := c.tx.Commit()
	c.tx = nil
	return err
}

func (c *Conn) Rollback() error {
	if c.tx == nil {
		return nil
	}
	c.logger(driver.RollbackCommand).Debug("ROLLBACK")
	err := c.tx.Rollback()
	c.tx = nil
	return err
}
