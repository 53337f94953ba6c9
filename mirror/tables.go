package mirror

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/schema"
	"github.com/leftmike/sqlmirror/sql"
)

// Tables is the mirror of one database: its tables, in order, and its procedures and
// functions.
type Tables struct {
	name    string
	drv     driver.Driver
	dt      schema.DataTypes
	upgrade UpgradeFunc
	version string
	names   []string
	tables  map[string]*Table
	procs   []*Procedure
	funcs   []*Function
}

// NewTables builds the mirror of the database name from snap. upgrade, if not nil, is called
// after every change.
func NewTables(ctx context.Context, name string, drv driver.Driver, snap Snapshot,
	upgrade UpgradeFunc) (*Tables, error) {

	if err := sql.CheckIdentifier("database", name); err != nil {
		return nil, err
	}
	tbls := &Tables{
		name:    name,
		drv:     drv,
		dt:      schema.DataTypes{Dialect: drv.Dialect()},
		upgrade: upgrade,
		tables:  map[string]*Table{},
	}

	var err error
	tbls.version, err = drv.Version(ctx)
	if err != nil {
		return nil, err
	}
	if err := tbls.Refresh(ctx, snap); err != nil {
		return nil, err
	}

	if tbls.dt.Dialect.Routines() {
		procs, err := drv.ShowProcedures(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range procs {
			tbls.procs = append(tbls.procs, &Procedure{routine{tables: tbls, r: r}})
		}
		funcs, err := drv.ShowFunctions(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range funcs {
			tbls.funcs = append(tbls.funcs, &Function{routine{tables: tbls, r: r}})
		}
	}
	return tbls, nil
}

// Refresh replaces the rows and columns of each table with those in snap and reads its
// triggers again. Tables that are already mirrored are changed in place; tables not in snap
// are dropped from the mirror.
func (tbls *Tables) Refresh(ctx context.Context, snap Snapshot) error {
	tables := make(map[string]*Table, len(snap.Tables))
	for _, n := range snap.Tables {
		f, ok := snap.Frames[n]
		if !ok {
			return fmt.Errorf("mirror: snapshot of %s is missing table %s", tbls.name, n)
		}
		if t, ok := tbls.tables[n]; ok {
			t.reset(f)
			if err := t.enjoin(); err != nil {
				return err
			}
			if err := t.showTriggers(ctx); err != nil {
				return err
			}
			tables[n] = t
			continue
		}
		t, err := newTable(ctx, tbls, n, f)
		if err != nil {
			return err
		}
		tables[n] = t
	}
	tbls.tables = tables
	tbls.names = append([]string(nil), snap.Tables...)
	return tbls.enjoin()
}

// enjoin rebuilds the table order from the tables that remain.
func (tbls *Tables) enjoin() error {
	names := make([]string, 0, len(tbls.tables))
	for _, n := range tbls.names {
		if _, ok := tbls.tables[n]; ok && !contains(names, n) {
			names = append(names, n)
		}
	}
	for n := range tbls.tables {
		if !contains(names, n) {
			names = append(names, n)
		}
	}
	for _, n := range names {
		if err := sql.CheckIdentifier("table", n); err != nil {
			return err
		}
	}
	tbls.names = names
	return nil
}

func (tbls *Tables) upgraded(ctx context.Context) error {
	if tbls.upgrade == nil {
		return nil
	}
	return tbls.upgrade(ctx)
}

func (tbls *Tables) logger() *log.Entry {
	return log.WithFields(log.Fields{"database": tbls.name, "dialect": tbls.dt.Dialect})
}

func (tbls *Tables) Name() string {
	return tbls.name
}

func (tbls *Tables) Driver() driver.Driver {
	return tbls.drv
}

func (tbls *Tables) DataTypes() schema.DataTypes {
	return tbls.dt
}

func (tbls *Tables) Version() string {
	return tbls.version
}

func (tbls *Tables) Names() []string {
	return append([]string(nil), tbls.names...)
}

func (tbls *Tables) Len() int {
	return len(tbls.names)
}

// Table returns the named table or nil.
func (tbls *Tables) Table(name string) *Table {
	return tbls.tables[name]
}

// IsTable is true if every one of names is a table.
func (tbls *Tables) IsTable(names ...string) bool {
	for _, n := range names {
		if _, ok := tbls.tables[n]; !ok {
			return false
		}
	}
	return true
}

// All returns the tables in order.
func (tbls *Tables) All() []*Table {
	ts := make([]*Table, 0, len(tbls.names))
	for _, n := range tbls.names {
		ts = append(ts, tbls.tables[n])
	}
	return ts
}

func (tbls *Tables) Close() error {
	return tbls.drv.Close()
}

type ColumnDef struct {
	Name string
	// Spec is the data type and constraints, such as DataTypes.Int() and DataTypes.Null(false).
	Spec []string
}

type ForeignDef struct {
	Name       string // optional constraint name
	Column     string
	References string // a table in the same database
}

// TableDef describes a table to create. Each column in Values gets those values; every other
// column gets its default.
type TableDef struct {
	Name     string
	Prefix   string // prepended, with _, to every column name
	Columns  []ColumnDef
	Options  []string
	Indexes  []*schema.Index
	Foreigns []ForeignDef
	Values   map[string][]sql.Value
}

// Create creates the table described by def and returns it; if the table already exists, it
// is returned unchanged.
func (tbls *Tables) Create(ctx context.Context, def TableDef) (*Table, error) {
	if err := sql.CheckIdentifier("table", def.Name); err != nil {
		return nil, err
	}
	if t, ok := tbls.tables[def.Name]; ok {
		return t, nil
	}
	if len(def.Columns) == 0 {
		return nil, sql.Errorf("table %s: at least one column is required", def.Name)
	}

	prefix := strings.TrimSpace(def.Prefix)
	if prefix != "" && !sql.ValidIdentifier(prefix) {
		prefix = ""
	}
	cols := make([]string, 0, len(def.Columns))
	specs := map[string][]string{}
	for _, cd := range def.Columns {
		col := cd.Name
		if prefix != "" {
			col = prefix + "_" + col
		}
		if err := sql.CheckIdentifier("column", col); err != nil {
			return nil, err
		}
		if contains(cols, col) {
			return nil, sql.Errorf("table %s: column %s is declared more than once", def.Name,
				col)
		}
		cols = append(cols, col)
		specs[col] = cd.Spec
	}

	n := -1
	var listed []string
	for _, col := range cols {
		vals, ok := def.Values[col]
		if !ok {
			continue
		}
		if n >= 0 && len(vals) != n {
			return nil, sql.Errorf("table %s: number of values do not match", def.Name)
		}
		n = len(vals)
		listed = append(listed, col)
	}
	if len(listed) != len(def.Values) {
		return nil, sql.Errorf("table %s: values for columns that are not declared", def.Name)
	}
	if n < 0 {
		n = 0
	}

	columns := make([][]sql.Value, len(cols))
	for cdx, col := range cols {
		if vals, ok := def.Values[col]; ok {
			columns[cdx] = vals
			continue
		}
		vals, err := schema.DefaultValues(col, specs[col], n, false)
		if err != nil {
			return nil, err
		}
		columns[cdx] = vals
	}

	defs := make([]string, 0, len(cols)+len(def.Foreigns))
	for _, col := range cols {
		defs = append(defs, strings.TrimSpace(tbls.drv.Quote(col)+" "+
			strings.Join(specs[col], " ")))
	}
	for _, fd := range def.Foreigns {
		cdx := -1
		for idx, col := range cols {
			if col == fd.Column {
				cdx = idx
			}
		}
		if cdx < 0 {
			return nil, sql.Errorf("foreign key: column %s not found in table %s", fd.Column,
				def.Name)
		}
		var refs schema.Reference
		if rt := tbls.Table(fd.References); rt != nil {
			refs = rt
		}
		fk, err := tbls.dt.Foreign(ctx, nil, fd.Column, refs, fd.Name)
		if err != nil {
			return nil, err
		}
		if fk == "" {
			continue
		}
		if strings.HasPrefix(fk, "REFERENCES ") {
			defs[cdx] += " " + fk
		} else {
			defs = append(defs, fk)
		}
	}

	err := tbls.drv.Create(ctx, def.Name, defs, false, strings.Join(def.Options, " "))
	if err != nil {
		return nil, err
	}
	for _, idx := range def.Indexes {
		err = tbls.drv.CreateIndex(ctx, idx.Render(tbls.drv.Quote(def.Name)))
		if err != nil {
			return nil, err
		}
	}
	if n > 0 {
		rows := make([][]sql.Value, 0, n)
		for rdx := 0; rdx < n; rdx++ {
			row := make([]sql.Value, 0, len(listed))
			for _, col := range listed {
				row = append(row, def.Values[col][rdx])
			}
			rows = append(rows, row)
		}
		_, err = tbls.drv.Insert(ctx, def.Name, listed, rows)
		if err != nil {
			return nil, err
		}
	}

	f := frame.New(cols)
	for rdx := 0; rdx < n; rdx++ {
		vals := make([]sql.Value, 0, len(cols))
		for cdx := range cols {
			vals = append(vals, columns[cdx][rdx])
		}
		f.Append(int64(rdx), vals)
	}
	t, err := newTable(ctx, tbls, def.Name, f)
	if err != nil {
		return nil, err
	}
	tbls.tables[def.Name] = t
	tbls.names = append(tbls.names, def.Name)
	tbls.logger().WithField("table", def.Name).Info("create table")
	if err := tbls.enjoin(); err != nil {
		return nil, err
	}
	return t, tbls.upgraded(ctx)
}

// Remove drops the table name.
func (tbls *Tables) Remove(ctx context.Context, name string) (bool, error) {
	if !tbls.IsTable(name) {
		return false, sql.Errorf("table %s does not exist", name)
	}
	if err := tbls.drv.Drop(ctx, name, false); err != nil {
		return false, err
	}
	delete(tbls.tables, name)
	tbls.logger().WithField("table", name).Info("remove table")
	if err := tbls.enjoin(); err != nil {
		return false, err
	}
	return true, tbls.upgraded(ctx)
}

func (tbls *Tables) RenameTable(ctx context.Context, old, name string) (bool, error) {
	t, ok := tbls.tables[old]
	if !ok {
		return false, sql.Errorf("table %s does not exist", old)
	}
	if tbls.IsTable(name) {
		return false, sql.Errorf("table %s already exists", name)
	}
	if err := sql.CheckIdentifier("table", name); err != nil {
		return false, err
	}
	if err := tbls.drv.RenameTable(ctx, old, name); err != nil {
		return false, err
	}

	t.name = name
	delete(tbls.tables, old)
	tbls.tables[name] = t
	for ndx, n := range tbls.names {
		if n == old {
			tbls.names[ndx] = name
		}
	}
	for _, trig := range t.triggers {
		trig.trig.Table = name
	}
	tbls.logger().WithFields(log.Fields{"table": old, "name": name}).Info("rename table")
	if err := tbls.enjoin(); err != nil {
		return false, err
	}
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, tbls.upgraded(ctx)
}
