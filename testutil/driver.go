package testutil

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// Call is one command received by a Driver. Text is the clauses, definition, or statement
// that the command was given, if any.
type Call struct {
	Command driver.Command
	Table   string
	Text    string
}

func (c Call) String() string {
	if c.Text == "" {
		return fmt.Sprintf("%s %s", c.Command, c.Table)
	}
	return fmt.Sprintf("%s %s: %s", c.Command, c.Table, c.Text)
}

type Table struct {
	Fields []driver.Field
	Rows   [][]sql.Value
}

func (tbl *Table) columns() []string {
	cols := make([]string, 0, len(tbl.Fields))
	for _, fld := range tbl.Fields {
		cols = append(cols, fld.Name)
	}
	return cols
}

func (tbl *Table) field(col string) int {
	for fdx, fld := range tbl.Fields {
		if fld.Name == col {
			return fdx
		}
	}
	return -1
}

func (tbl *Table) renumber() {
	for fdx := range tbl.Fields {
		tbl.Fields[fdx].Ordinal = fdx + 1
	}
}

// Driver is an in-memory driver.Driver which records every call. Tables created, altered,
// and inserted into are kept so that Fields, ShowColumns, and Select see the changes. Update
// and delete with clauses are recorded only; the rows are not changed.
type Driver struct {
	D          sql.Dialect
	Ver        string
	Tables     map[string]*Table
	Order      []string
	Calls      []Call
	Fail       map[driver.Command]error
	Indexes    map[string][]driver.Index
	Foreigns   map[string][]driver.Foreign
	Triggers   map[string][]driver.Trigger
	Procedures []driver.Routine
	Functions  []driver.Routine
	Result     sql.Value
	Closed     bool
}

var _ driver.Driver = (*Driver)(nil)

func NewDriver(d sql.Dialect) *Driver {
	return &Driver{
		D:        d,
		Ver:      "1.0-test",
		Tables:   map[string]*Table{},
		Fail:     map[driver.Command]error{},
		Indexes:  map[string][]driver.Index{},
		Foreigns: map[string][]driver.Foreign{},
		Triggers: map[string][]driver.Trigger{},
	}
}

// AddTable adds a table with fields and rows, without recording a call.
func (fd *Driver) AddTable(name string, fields []driver.Field, rows ...[]sql.Value) {
	tbl := &Table{Fields: append([]driver.Field(nil), fields...)}
	tbl.renumber()
	for _, r := range rows {
		tbl.Rows = append(tbl.Rows, append([]sql.Value(nil), r...))
	}
	if _, ok := fd.Tables[name]; !ok {
		fd.Order = append(fd.Order, name)
	}
	fd.Tables[name] = tbl
}

// Commands returns the commands received so far, in order.
func (fd *Driver) Commands() []driver.Command {
	cmds := make([]driver.Command, 0, len(fd.Calls))
	for _, c := range fd.Calls {
		cmds = append(cmds, c.Command)
	}
	return cmds
}

// Last returns the most recent call, or an empty call if there are none.
func (fd *Driver) Last() Call {
	if len(fd.Calls) == 0 {
		return Call{}
	}
	return fd.Calls[len(fd.Calls)-1]
}

// Reset forgets the recorded calls.
func (fd *Driver) Reset() {
	fd.Calls = nil
}

func (fd *Driver) record(cmd driver.Command, table, text string) error {
	fd.Calls = append(fd.Calls, Call{Command: cmd, Table: table, Text: text})
	return fd.Fail[cmd]
}

func (fd *Driver) table(table string) (*Table, error) {
	tbl, ok := fd.Tables[table]
	if !ok {
		return nil, sql.Errorf("test: table %s not found", table)
	}
	return tbl, nil
}

func (fd *Driver) routines(cmd driver.Command) error {
	if !fd.D.Routines() {
		return driver.Unsupported(fd.D, cmd)
	}
	return nil
}

func (fd *Driver) Dialect() sql.Dialect {
	return fd.D
}

func (fd *Driver) Close() error {
	fd.Closed = true
	return nil
}

func (fd *Driver) Quote(id string) string {
	return id
}

func (fd *Driver) Version(ctx context.Context) (string, error) {
	if err := fd.record(driver.VersionCommand, "", ""); err != nil {
		return "", err
	}
	return fd.Ver, nil
}

func (fd *Driver) Select(ctx context.Context, table string, cols []string, distinct bool,
	clauses string) (*frame.Frame, error) {

	if err := fd.record(driver.SelectCommand, table, clauses); err != nil {
		return nil, err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return nil, err
	}
	f := frame.New(tbl.columns())
	for rdx, r := range tbl.Rows {
		f.Append(int64(rdx), append([]sql.Value(nil), r...))
	}
	if len(cols) > 0 {
		f, err = f.Project(cols)
		if err != nil {
			return nil, err
		}
	}
	if distinct {
		f = f.Distinct()
	}
	return f, nil
}

func (fd *Driver) Insert(ctx context.Context, table string, cols []string,
	rows [][]sql.Value) (int64, error) {

	if err := fd.record(driver.InsertCommand, table, strings.Join(cols, ", ")); err != nil {
		return 0, err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if len(r) != len(cols) {
			return 0, sql.Errorf("test: insert %s: %d values for %d columns", table, len(r),
				len(cols))
		}
		row := make([]sql.Value, len(tbl.Fields))
		for cdx, col := range cols {
			fdx := tbl.field(col)
			if fdx < 0 {
				return 0, sql.Errorf("test: insert %s: column %s not found", table, col)
			}
			row[fdx] = r[cdx]
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return int64(len(rows)), nil
}

func (fd *Driver) Update(ctx context.Context, table string, cols []string, vals []sql.Value,
	clauses string) (int64, error) {

	sets := make([]string, 0, len(cols))
	for cdx, col := range cols {
		sets = append(sets, col+" = "+sql.Literal(vals[cdx]))
	}
	text := strings.Join(sets, ", ")
	if clauses != "" {
		text += " " + clauses
	}
	if err := fd.record(driver.UpdateCommand, table, text); err != nil {
		return 0, err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return 0, err
	}
	return int64(len(tbl.Rows)), nil
}

func (fd *Driver) Delete(ctx context.Context, table string, clauses string) (int64, error) {
	if err := fd.record(driver.DeleteCommand, table, clauses); err != nil {
		return 0, err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return 0, err
	}
	n := int64(len(tbl.Rows))
	if clauses == "" {
		tbl.Rows = nil
	}
	return n, nil
}

var (
	notNullRegexp = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	primaryRegexp = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	defaultRegexp = regexp.MustCompile(`(?i)\bDEFAULT\s*(\([^)]*\)|'(?:[^']|'')*'|\S+)`)
)

// ParseField returns the field declared by def, a column definition like
// "age INT NOT NULL DEFAULT 18".
func ParseField(def string) driver.Field {
	def = strings.TrimSpace(def)
	name := def
	rest := ""
	if idx := strings.IndexAny(def, " \t"); idx >= 0 {
		name = def[:idx]
		rest = strings.TrimSpace(def[idx+1:])
	}
	return fieldOf(strings.Trim(name, "\"`"), rest)
}

func fieldOf(name, def string) driver.Field {
	fld := driver.Field{
		Name:    name,
		NotNull: notNullRegexp.MatchString(def),
		Primary: primaryRegexp.MatchString(def),
	}
	if typ := strings.Fields(def); len(typ) > 0 {
		fld.Type = strings.ToUpper(typ[0])
	}
	if m := defaultRegexp.FindStringSubmatch(def); m != nil {
		d := strings.TrimSuffix(strings.TrimPrefix(m[1], "("), ")")
		fld.Default = &d
	}
	if fld.Primary {
		fld.NotNull = true
	}
	return fld
}

func (fd *Driver) Create(ctx context.Context, table string, defs []string, ifNotExists bool,
	options string) error {

	if err := fd.record(driver.CreateCommand, table, strings.Join(defs, ", ")); err != nil {
		return err
	}
	if _, ok := fd.Tables[table]; ok {
		if ifNotExists {
			return nil
		}
		return sql.Errorf("test: table %s already exists", table)
	}

	var flds []driver.Field
	for _, def := range defs {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(def)), "FOREIGN KEY") ||
			strings.HasPrefix(strings.ToUpper(strings.TrimSpace(def)), "CONSTRAINT") {
			continue
		}
		flds = append(flds, ParseField(def))
	}
	fd.AddTable(table, flds)
	return nil
}

func (fd *Driver) Drop(ctx context.Context, table string, ifExists bool) error {
	if err := fd.record(driver.DropCommand, table, ""); err != nil {
		return err
	}
	if _, ok := fd.Tables[table]; !ok {
		if ifExists {
			return nil
		}
		return sql.Errorf("test: table %s not found", table)
	}
	delete(fd.Tables, table)
	for odx, n := range fd.Order {
		if n == table {
			fd.Order = append(fd.Order[:odx], fd.Order[odx+1:]...)
			break
		}
	}
	return nil
}

func (fd *Driver) RenameTable(ctx context.Context, table, name string) error {
	if err := fd.record(driver.RenameTableCommand, table, name); err != nil {
		return err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return err
	}
	delete(fd.Tables, table)
	fd.Tables[name] = tbl
	for odx, n := range fd.Order {
		if n == table {
			fd.Order[odx] = name
		}
	}
	return nil
}

func (fd *Driver) ShowTables(ctx context.Context) ([]string, error) {
	if err := fd.record(driver.ShowTablesCommand, "", ""); err != nil {
		return nil, err
	}
	return append([]string(nil), fd.Order...), nil
}

func (fd *Driver) ShowColumns(ctx context.Context, table string) ([]string, error) {
	if err := fd.record(driver.ShowColumnsCommand, table, ""); err != nil {
		return nil, err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return nil, err
	}
	return tbl.columns(), nil
}

func (fd *Driver) Fields(ctx context.Context, table string) ([]driver.Field, error) {
	if err := fd.record(driver.FieldsCommand, table, ""); err != nil {
		return nil, err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return nil, err
	}
	return append([]driver.Field(nil), tbl.Fields...), nil
}

func (fd *Driver) AddColumn(ctx context.Context, table, col, def string) error {
	if err := fd.record(driver.AddColumnCommand, table, col+" "+def); err != nil {
		return err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return err
	}
	if tbl.field(col) >= 0 {
		return sql.Errorf("test: column %s already exists", col)
	}
	tbl.Fields = append(tbl.Fields, fieldOf(col, def))
	tbl.renumber()
	for rdx := range tbl.Rows {
		tbl.Rows[rdx] = append(tbl.Rows[rdx], nil)
	}
	return nil
}

func (fd *Driver) AlterColumn(ctx context.Context, table, col, def string) error {
	if err := fd.record(driver.AlterColumnCommand, table, col+" "+def); err != nil {
		return err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return err
	}
	fdx := tbl.field(col)
	if fdx < 0 {
		return sql.Errorf("test: column %s not found", col)
	}
	tbl.Fields[fdx] = fieldOf(col, def)
	tbl.renumber()
	return nil
}

func (fd *Driver) DropColumn(ctx context.Context, table, col string) error {
	if err := fd.record(driver.DropColumnCommand, table, col); err != nil {
		return err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return err
	}
	fdx := tbl.field(col)
	if fdx < 0 {
		return sql.Errorf("test: column %s not found", col)
	}
	tbl.Fields = append(tbl.Fields[:fdx], tbl.Fields[fdx+1:]...)
	tbl.renumber()
	for rdx, r := range tbl.Rows {
		tbl.Rows[rdx] = append(r[:fdx:fdx], r[fdx+1:]...)
	}
	return nil
}

func (fd *Driver) RenameColumn(ctx context.Context, table, col, name string) error {
	if err := fd.record(driver.RenameColumnCommand, table, col+" "+name); err != nil {
		return err
	}
	tbl, err := fd.table(table)
	if err != nil {
		return err
	}
	fdx := tbl.field(col)
	if fdx < 0 {
		return sql.Errorf("test: column %s not found", col)
	}
	tbl.Fields[fdx].Name = name
	return nil
}

func (fd *Driver) CreateIndex(ctx context.Context, stmt string) error {
	return fd.record(driver.CreateIndexCommand, "", stmt)
}

func (fd *Driver) DropIndex(ctx context.Context, table, name string) error {
	if err := fd.record(driver.DropIndexCommand, table, name); err != nil {
		return err
	}
	idxs := fd.Indexes[table]
	for idx := range idxs {
		if idxs[idx].Name == name {
			fd.Indexes[table] = append(idxs[:idx:idx], idxs[idx+1:]...)
			return nil
		}
	}
	return sql.Errorf("test: index %s not found", name)
}

func (fd *Driver) ShowIndex(ctx context.Context, table string) ([]driver.Index, error) {
	if err := fd.record(driver.ShowIndexCommand, table, ""); err != nil {
		return nil, err
	}
	return fd.Indexes[table], nil
}

func (fd *Driver) ShowForeign(ctx context.Context, table string) ([]driver.Foreign, error) {
	if err := fd.record(driver.ShowForeignCommand, table, ""); err != nil {
		return nil, err
	}
	return fd.Foreigns[table], nil
}

var foreignRegexp = regexp.MustCompile(
	`^(?:CONSTRAINT (\w+) )?(?:FOREIGN KEY \((\w+)\) )?REFERENCES (\w+) \((\w+)\)$`)

func (fd *Driver) CreateForeign(ctx context.Context, table, col, constraint string) error {
	if err := fd.record(driver.CreateForeignCommand, table, constraint); err != nil {
		return err
	}
	m := foreignRegexp.FindStringSubmatch(constraint)
	if m == nil {
		return sql.Errorf("test: bad foreign key: %s", constraint)
	}
	name := m[1]
	if name == "" {
		name = fmt.Sprintf("%s_%s_fkey", table, col)
	}
	fd.Foreigns[table] = append(fd.Foreigns[table],
		driver.Foreign{
			Name:  name,
			Table: m[3],
			From:  col,
			To:    m[4],
		})
	return nil
}

func findRoutine(rs []driver.Routine, name string) int {
	for rdx, r := range rs {
		if r.Name == name {
			return rdx
		}
	}
	return -1
}

func (fd *Driver) ShowProcedures(ctx context.Context) ([]driver.Routine, error) {
	if err := fd.routines(driver.ShowProcedureCommand); err != nil {
		return nil, err
	}
	if err := fd.record(driver.ShowProcedureCommand, "", ""); err != nil {
		return nil, err
	}
	return append([]driver.Routine(nil), fd.Procedures...), nil
}

func (fd *Driver) CreateProcedure(ctx context.Context, r driver.Routine) error {
	if err := fd.routines(driver.CreateProcedureCommand); err != nil {
		return err
	}
	if err := fd.record(driver.CreateProcedureCommand, r.Name, r.Body); err != nil {
		return err
	}
	fd.Procedures = append(fd.Procedures, r)
	return nil
}

// RunProcedure returns a frame with one row holding the arguments.
func (fd *Driver) RunProcedure(ctx context.Context, name string,
	args []sql.Value) (*frame.Frame, error) {

	if err := fd.routines(driver.RunProcedureCommand); err != nil {
		return nil, err
	}
	if err := fd.record(driver.RunProcedureCommand, name, ""); err != nil {
		return nil, err
	}
	rdx := findRoutine(fd.Procedures, name)
	if rdx < 0 {
		return nil, sql.Errorf("test: procedure %s not found", name)
	}
	var cols []string
	for _, p := range fd.Procedures[rdx].Params {
		cols = append(cols, p.Name)
	}
	f := frame.New(cols)
	f.Append(0, append([]sql.Value(nil), args...))
	return f, nil
}

func (fd *Driver) DropProcedure(ctx context.Context, name string, ifExists bool) error {
	if err := fd.routines(driver.DropProcedureCommand); err != nil {
		return err
	}
	if err := fd.record(driver.DropProcedureCommand, name, ""); err != nil {
		return err
	}
	rdx := findRoutine(fd.Procedures, name)
	if rdx < 0 {
		if ifExists {
			return nil
		}
		return sql.Errorf("test: procedure %s not found", name)
	}
	fd.Procedures = append(fd.Procedures[:rdx], fd.Procedures[rdx+1:]...)
	return nil
}

func (fd *Driver) ShowFunctions(ctx context.Context) ([]driver.Routine, error) {
	if err := fd.routines(driver.ShowFunctionCommand); err != nil {
		return nil, err
	}
	if err := fd.record(driver.ShowFunctionCommand, "", ""); err != nil {
		return nil, err
	}
	return append([]driver.Routine(nil), fd.Functions...), nil
}

func (fd *Driver) CreateFunction(ctx context.Context, r driver.Routine) error {
	if err := fd.routines(driver.CreateFunctionCommand); err != nil {
		return err
	}
	if err := fd.record(driver.CreateFunctionCommand, r.Name, r.Body); err != nil {
		return err
	}
	fd.Functions = append(fd.Functions, r)
	return nil
}

// RunFunction returns Result.
func (fd *Driver) RunFunction(ctx context.Context, name string,
	args []sql.Value) (sql.Value, error) {

	if err := fd.routines(driver.RunFunctionCommand); err != nil {
		return nil, err
	}
	if err := fd.record(driver.RunFunctionCommand, name, ""); err != nil {
		return nil, err
	}
	if findRoutine(fd.Functions, name) < 0 {
		return nil, sql.Errorf("test: function %s not found", name)
	}
	return fd.Result, nil
}

func (fd *Driver) DropFunction(ctx context.Context, name string, ifExists bool) error {
	if err := fd.routines(driver.DropFunctionCommand); err != nil {
		return err
	}
	if err := fd.record(driver.DropFunctionCommand, name, ""); err != nil {
		return err
	}
	rdx := findRoutine(fd.Functions, name)
	if rdx < 0 {
		if ifExists {
			return nil
		}
		return sql.Errorf("test: function %s not found", name)
	}
	fd.Functions = append(fd.Functions[:rdx], fd.Functions[rdx+1:]...)
	return nil
}

func (fd *Driver) ShowTriggers(ctx context.Context, table string) ([]driver.Trigger, error) {
	if err := fd.routines(driver.ShowTriggerCommand); err != nil {
		return nil, err
	}
	if err := fd.record(driver.ShowTriggerCommand, table, ""); err != nil {
		return nil, err
	}
	return append([]driver.Trigger(nil), fd.Triggers[table]...), nil
}

func (fd *Driver) CreateTrigger(ctx context.Context, trig driver.Trigger) error {
	if err := fd.routines(driver.CreateTriggerCommand); err != nil {
		return err
	}
	if err := fd.record(driver.CreateTriggerCommand, trig.Table, trig.Body); err != nil {
		return err
	}
	fd.Triggers[trig.Table] = append(fd.Triggers[trig.Table], trig)
	return nil
}

func (fd *Driver) DropTrigger(ctx context.Context, table, name string, ifExists bool) error {
	if err := fd.routines(driver.DropTriggerCommand); err != nil {
		return err
	}
	if err := fd.record(driver.DropTriggerCommand, table, name); err != nil {
		return err
	}
	trigs := fd.Triggers[table]
	for tdx := range trigs {
		if trigs[tdx].Name == name {
			fd.Triggers[table] = append(trigs[:tdx:tdx], trigs[tdx+1:]...)
			return nil
		}
	}
	if ifExists {
		return nil
	}
	return sql.Errorf("test: trigger %s not found", name)
}

func (fd *Driver) Commit(ctx context.Context) error {
	return fd.record(driver.CommitCommand, "", "")
}

func (fd *Driver) Rollback() error {
	return fd.record(driver.RollbackCommand, "", "")
}
