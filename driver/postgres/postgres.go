// Package postgres is the driver for PostgreSQL databases.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/sqldb"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

const DefaultSchema = "public"

func init() {
	driver.Register(sql.PostgreSQL,
		func(ctx context.Context, dsn string, opts driver.Options) (driver.Driver, error) {
			return Open(ctx, dsn, opts)
		})
}

var _ driver.Driver = (*Driver)(nil)

type Driver struct {
	*sqldb.Conn
	schema string
}

func Open(ctx context.Context, dsn string, opts driver.Options) (*Driver, error) {
	c, err := sqldb.Open(ctx,
		sqldb.Config{
			Dialect:     sql.PostgreSQL,
			DriverName:  "postgres",
			DSN:         dsn,
			AutoCommit:  opts.AutoCommit,
			MaxAttempts: opts.MaxAttempts,
			Quote:       pq.QuoteIdentifier,
		})
	if err != nil {
		return nil, err
	}

	schema := opts.Schema
	if schema == "" {
		schema = DefaultSchema
	}
	log.WithField("schema", schema).Debug("postgres: open")
	return &Driver{Conn: c, schema: schema}, nil
}

func (d *Driver) Schema() string {
	return d.schema
}

func (d *Driver) Version(ctx context.Context) (string, error) {
	vers, err := d.Strings(ctx, driver.VersionCommand, "SHOW server_version")
	if err != nil {
		return "", err
	} else if len(vers) == 0 {
		return "", nil
	}
	return vers[0], nil
}

func (d *Driver) ShowTables(ctx context.Context) ([]string, error) {
	return d.Strings(ctx, driver.ShowTablesCommand,
		`SELECT table_name FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`, d.schema)
}

func (d *Driver) Fields(ctx context.Context, table string) ([]driver.Field, error) {
	f, err := d.Query(ctx, driver.FieldsCommand,
		`SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
	EXISTS (SELECT 1 FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON tc.constraint_name = k.constraint_name AND tc.table_schema = k.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND k.table_schema = c.table_schema
			AND k.table_name = c.table_name AND k.column_name = c.column_name)
FROM information_schema.columns c
WHERE c.table_schema = ? AND c.table_name = ?
ORDER BY c.ordinal_position`, d.schema, table)
	if err != nil {
		return nil, err
	}

	flds := make([]driver.Field, 0, f.Len())
	for _, r := range f.Rows {
		fld := driver.Field{
			Ordinal: len(flds) + 1,
			Name:    sql.Text(r.Values[0]),
			Type:    strings.ToUpper(sql.Text(r.Values[1])),
			NotNull: strings.EqualFold(sql.Text(r.Values[2]), "NO"),
			Primary: sql.Text(r.Values[4]) == sql.TrueString,
		}
		if r.Values[3] != nil {
			def := sql.Text(r.Values[3])
			fld.Default = &def
		}
		flds = append(flds, fld)
	}
	return flds, nil
}

var (
	notNullRegexp = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	nullRegexp    = regexp.MustCompile(`(?i)\bNULL\b`)
	defaultRegexp = regexp.MustCompile(`(?i)\bDEFAULT\s+('(?:[^']|'')*'|\([^)]*\)|\S+)`)
)

// AlterActions splits a column definition into the ALTER COLUMN actions that postgresql
// needs to apply it: the type, the nullability, and the default.
func AlterActions(col, def string) []string {
	col = pq.QuoteIdentifier(col)
	var actions []string

	var dflt string
	if m := defaultRegexp.FindStringSubmatch(def); m != nil {
		dflt = m[1]
		def = strings.Replace(def, m[0], " ", 1)
	}
	var notNull, null bool
	if notNullRegexp.MatchString(def) {
		notNull = true
		def = notNullRegexp.ReplaceAllString(def, " ")
	} else if nullRegexp.MatchString(def) {
		null = true
		def = nullRegexp.ReplaceAllString(def, " ")
	}

	typ := strings.Join(strings.Fields(def), " ")
	if typ != "" {
		actions = append(actions,
			fmt.Sprintf("ALTER COLUMN %s TYPE %s USING %s::%s", col, typ, col, typ))
	}
	if notNull {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", col))
	} else if null {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", col))
	}
	if dflt != "" {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", col, dflt))
	}
	return actions
}

func (d *Driver) AlterColumn(ctx context.Context, table, col, def string) error {
	actions := AlterActions(col, def)
	if len(actions) == 0 {
		return sql.Errorf("postgres: nothing to alter for column %s", col)
	}
	_, err := d.Exec(ctx, driver.AlterColumnCommand,
		fmt.Sprintf("ALTER TABLE %s %s", pq.QuoteIdentifier(table), strings.Join(actions, ", ")))
	return err
}

func (d *Driver) ShowIndex(ctx context.Context, table string) ([]driver.Index, error) {
	f, err := d.Query(ctx, driver.ShowIndexCommand,
		`SELECT i.relname, ix.indisunique, a.attname, am.amname
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_am am ON am.oid = i.relam
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname = ? AND t.relname = ?
ORDER BY i.relname, array_position(ix.indkey::int2[], a.attnum)`, d.schema, table)
	if err != nil {
		return nil, err
	}

	var idxs []driver.Index
	for _, r := range f.Rows {
		name := sql.Text(r.Values[0])
		if len(idxs) == 0 || idxs[len(idxs)-1].Name != name {
			idxs = append(idxs,
				driver.Index{
					Name:   name,
					Unique: sql.Text(r.Values[1]) == sql.TrueString,
					Using:  strings.ToUpper(sql.Text(r.Values[3])),
				})
		}
		idxs[len(idxs)-1].Columns = append(idxs[len(idxs)-1].Columns, sql.Text(r.Values[2]))
	}
	return idxs, nil
}

func (d *Driver) DropIndex(ctx context.Context, table, name string) error {
	_, err := d.Exec(ctx, driver.DropIndexCommand,
		fmt.Sprintf("DROP INDEX IF EXISTS %s.%s", pq.QuoteIdentifier(d.schema),
			pq.QuoteIdentifier(name)))
	return err
}

func (d *Driver) ShowForeign(ctx context.Context, table string) ([]driver.Foreign, error) {
	f, err := d.Query(ctx, driver.ShowForeignCommand,
		`SELECT tc.constraint_name, ccu.table_name, kcu.column_name, ccu.column_name,
	rc.update_rule, rc.delete_rule
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
	ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
	ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
JOIN information_schema.referential_constraints rc
	ON tc.constraint_name = rc.constraint_name AND tc.table_schema = rc.constraint_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = ? AND tc.table_name = ?`,
		d.schema, table)
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
		`SELECT r.routine_name, p.parameter_mode, p.parameter_name, p.data_type, r.data_type
FROM information_schema.routines r
LEFT JOIN information_schema.parameters p
	ON r.specific_name = p.specific_name AND r.specific_schema = p.specific_schema
WHERE r.routine_schema = ? AND r.routine_type = ?
ORDER BY r.routine_name, p.ordinal_position`, d.schema, kind)
	if err != nil {
		return nil, err
	}
	rs := sqldb.Routines(f)
	if kind == "PROCEDURE" {
		for rdx := range rs {
			rs[rdx].Returns = ""
		}
	}
	return rs, nil
}

func (d *Driver) ShowProcedures(ctx context.Context) ([]driver.Routine, error) {
	return d.routines(ctx, driver.ShowProcedureCommand, "PROCEDURE")
}

func (d *Driver) ShowFunctions(ctx context.Context) ([]driver.Routine, error) {
	return d.routines(ctx, driver.ShowFunctionCommand, "FUNCTION")
}

// dollarQuote quotes a routine body; a body that is already quoted is used as is.
func dollarQuote(body string) string {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "$") {
		return body
	}
	return "$$ " + body + " $$"
}

func (d *Driver) CreateProcedure(ctx context.Context, r driver.Routine) error {
	_, err := d.Exec(ctx, driver.CreateProcedureCommand,
		fmt.Sprintf("CREATE OR REPLACE PROCEDURE %s%s LANGUAGE plpgsql AS %s",
			pq.QuoteIdentifier(r.Name), d.ParamList(r.Params), dollarQuote(r.Body)))
	return err
}

func (d *Driver) CreateFunction(ctx context.Context, r driver.Routine) error {
	_, err := d.Exec(ctx, driver.CreateFunctionCommand,
		fmt.Sprintf("CREATE OR REPLACE FUNCTION %s%s RETURNS %s LANGUAGE plpgsql AS %s",
			pq.QuoteIdentifier(r.Name), d.ParamList(r.Params), r.Returns, dollarQuote(r.Body)))
	return err
}

func (d *Driver) RunProcedure(ctx context.Context, name string,
	args []sql.Value) (*frame.Frame, error) {

	_, err := d.Exec(ctx, driver.RunProcedureCommand,
		"CALL "+pq.QuoteIdentifier(name)+sqldb.Placeholders(len(args)), sqldb.Args(args)...)
	if err != nil {
		return nil, err
	}
	return frame.New(nil), nil
}

func (d *Driver) ShowTriggers(ctx context.Context, table string) ([]driver.Trigger, error) {
	f, err := d.Query(ctx, driver.ShowTriggerCommand,
		`SELECT trigger_name, event_object_table, action_timing, event_manipulation,
	action_statement
FROM information_schema.triggers
WHERE trigger_schema = ? AND event_object_table = ?
ORDER BY trigger_name`, d.schema, table)
	if err != nil {
		return nil, err
	}

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
	return trigs, nil
}

func triggerFunction(name string) string {
	return pq.QuoteIdentifier(name + "_fn")
}

// CreateTrigger creates the trigger function name_fn from the body of trig and then the
// trigger that executes it.
func (d *Driver) CreateTrigger(ctx context.Context, trig driver.Trigger) error {
	body := strings.TrimSpace(trig.Body)
	if !strings.HasSuffix(body, ";") {
		body += ";"
	}
	ret := "NEW"
	if strings.EqualFold(trig.Event, "DELETE") {
		ret = "OLD"
	}
	_, err := d.Exec(ctx, driver.CreateTriggerCommand,
		fmt.Sprintf("CREATE OR REPLACE FUNCTION %s() RETURNS trigger LANGUAGE plpgsql AS "+
			"$$ BEGIN %s RETURN %s; END $$", triggerFunction(trig.Name), body, ret))
	if err != nil {
		return err
	}
	_, err = d.Exec(ctx, driver.CreateTriggerCommand,
		fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
			pq.QuoteIdentifier(trig.Name), trig.Timing, trig.Event,
			pq.QuoteIdentifier(trig.Table), triggerFunction(trig.Name)))
	return err
}

func (d *Driver) DropTrigger(ctx context.Context, table, name string, ifExists bool) error {
	ie := ""
	if ifExists {
		ie = "IF EXISTS "
	}
	_, err := d.Exec(ctx, driver.DropTriggerCommand,
		fmt.Sprintf("DROP TRIGGER %s%s ON %s", ie, pq.QuoteIdentifier(name),
			pq.QuoteIdentifier(table)))
	if err != nil {
		return err
	}
	_, err = d.Exec(ctx, driver.DropTriggerCommand,
		fmt.Sprintf("DROP FUNCTION IF EXISTS %s()", triggerFunction(name)))
	return err
}
