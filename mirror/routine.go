package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type routine struct {
	tables *Tables
	r      driver.Routine
}

func (rt routine) Name() string {
	return rt.r.Name
}

func (rt routine) Params() []driver.Param {
	return append([]driver.Param(nil), rt.r.Params...)
}

// Count is the number of parameters.
func (rt routine) Count() int {
	return len(rt.r.Params)
}

func (rt routine) Body() string {
	return rt.r.Body
}

func (rt routine) Definer() string {
	return rt.r.Definer
}

func (rt routine) check(args []sql.Value) error {
	if len(args) != rt.Count() {
		return sql.Errorf("%s: parameter lengths do not match: got %d want %d", rt.r.Name,
			len(args), rt.Count())
	}
	return nil
}

func checkRoutines(tbls *Tables, what string) error {
	if !tbls.dt.Dialect.Routines() {
		return sql.Errorf("the %s does not exist in this DBMS %s", what, tbls.dt.Dialect)
	}
	return nil
}

func checkRoutine(r driver.Routine, what string) error {
	if err := sql.CheckIdentifier(what, r.Name); err != nil {
		return err
	}
	for _, p := range r.Params {
		if err := sql.CheckIdentifier("parameter", p.Name); err != nil {
			return err
		}
	}
	if strings.TrimSpace(r.Body) == "" {
		return sql.Errorf("the %s body must not be empty", what)
	}
	return nil
}

type Procedure struct {
	routine
}

func (p *Procedure) String() string {
	return fmt.Sprintf("Procedure (%s|%s) => %s", p.tables.name, p.tables.dt.Dialect, p.r.Name)
}

// Run calls the procedure with args and returns the rows it selects, if any.
func (p *Procedure) Run(ctx context.Context, args ...sql.Value) (*frame.Frame, error) {
	if err := p.check(args); err != nil {
		return nil, err
	}
	return p.tables.drv.RunProcedure(ctx, p.r.Name, args)
}

func (p *Procedure) Remove(ctx context.Context, ifExists bool) (bool, error) {
	tbls := p.tables
	if err := tbls.drv.DropProcedure(ctx, p.r.Name, ifExists); err != nil {
		return false, err
	}
	for pdx, proc := range tbls.procs {
		if proc == p {
			tbls.procs = append(tbls.procs[:pdx], tbls.procs[pdx+1:]...)
			break
		}
	}
	return true, nil
}

type Function struct {
	routine
}

func (f *Function) String() string {
	return fmt.Sprintf("Function (%s|%s) => %s", f.tables.name, f.tables.dt.Dialect, f.r.Name)
}

func (f *Function) Returns() string {
	return f.r.Returns
}

// Run calls the function with args and returns its result.
func (f *Function) Run(ctx context.Context, args ...sql.Value) (sql.Value, error) {
	if err := f.check(args); err != nil {
		return nil, err
	}
	return f.tables.drv.RunFunction(ctx, f.r.Name, args)
}

func (f *Function) Remove(ctx context.Context, ifExists bool) (bool, error) {
	tbls := f.tables
	if err := tbls.drv.DropFunction(ctx, f.r.Name, ifExists); err != nil {
		return false, err
	}
	for fdx, fn := range tbls.funcs {
		if fn == f {
			tbls.funcs = append(tbls.funcs[:fdx], tbls.funcs[fdx+1:]...)
			break
		}
	}
	return true, nil
}

func (tbls *Tables) Procedures() []*Procedure {
	return append([]*Procedure(nil), tbls.procs...)
}

// Procedure returns the named procedure or nil.
func (tbls *Tables) Procedure(name string) *Procedure {
	for _, p := range tbls.procs {
		if p.r.Name == name {
			return p
		}
	}
	return nil
}

func (tbls *Tables) Functions() []*Function {
	return append([]*Function(nil), tbls.funcs...)
}

// Function returns the named function or nil.
func (tbls *Tables) Function(name string) *Function {
	for _, f := range tbls.funcs {
		if f.r.Name == name {
			return f
		}
	}
	return nil
}

func (tbls *Tables) CreateProcedure(ctx context.Context, r driver.Routine) (*Procedure,
	error) {

	if err := checkRoutines(tbls, "procedure"); err != nil {
		return nil, err
	}
	if err := checkRoutine(r, "procedure"); err != nil {
		return nil, err
	}
	if tbls.Procedure(r.Name) != nil {
		return nil, sql.Errorf("procedure %s already exists", r.Name)
	}
	r.Returns = ""
	if err := tbls.drv.CreateProcedure(ctx, r); err != nil {
		return nil, err
	}
	p := &Procedure{routine{tables: tbls, r: r}}
	tbls.procs = append(tbls.procs, p)
	tbls.logger().WithField("procedure", r.Name).Info("create procedure")
	return p, nil
}

func (tbls *Tables) CreateFunction(ctx context.Context, r driver.Routine) (*Function, error) {
	if err := checkRoutines(tbls, "function"); err != nil {
		return nil, err
	}
	if err := checkRoutine(r, "function"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.Returns) == "" {
		return nil, sql.Errorf("function %s: the return type must be present", r.Name)
	}
	if tbls.Function(r.Name) != nil {
		return nil, sql.Errorf("function %s already exists", r.Name)
	}
	if err := tbls.drv.CreateFunction(ctx, r); err != nil {
		return nil, err
	}
	f := &Function{routine{tables: tbls, r: r}}
	tbls.funcs = append(tbls.funcs, f)
	tbls.logger().WithField("function", r.Name).Info("create function")
	return f, nil
}

// Trigger is a trigger on a table; it fires BEFORE or AFTER an INSERT, UPDATE, or DELETE.
type Trigger struct {
	table *Table
	trig  driver.Trigger
}

func (trig *Trigger) String() string {
	return fmt.Sprintf("Trigger (%s|%s) => %s", trig.table.tables.name,
		trig.table.tables.dt.Dialect, trig.trig.Name)
}

func (trig *Trigger) Name() string {
	return trig.trig.Name
}

func (trig *Trigger) Table() *Table {
	return trig.table
}

func (trig *Trigger) Timing() string {
	return trig.trig.Timing
}

func (trig *Trigger) Event() string {
	return trig.trig.Event
}

func (trig *Trigger) Body() string {
	return trig.trig.Body
}

func (trig *Trigger) Remove(ctx context.Context, ifExists bool) (bool, error) {
	t := trig.table
	err := t.tables.drv.DropTrigger(ctx, t.name, trig.trig.Name, ifExists)
	if err != nil {
		return false, err
	}
	for tdx, tr := range t.triggers {
		if tr == trig {
			t.triggers = append(t.triggers[:tdx], t.triggers[tdx+1:]...)
			break
		}
	}
	return true, nil
}

func (t *Table) Triggers() []*Trigger {
	return append([]*Trigger(nil), t.triggers...)
}

// Trigger returns the named trigger or nil.
func (t *Table) Trigger(name string) *Trigger {
	for _, trig := range t.triggers {
		if trig.trig.Name == name {
			return trig
		}
	}
	return nil
}

// CreateTrigger creates a trigger on the table from def; def.Table is ignored.
func (t *Table) CreateTrigger(ctx context.Context, def driver.Trigger) (*Trigger, error) {
	if err := checkRoutines(t.tables, "trigger"); err != nil {
		return nil, err
	}
	def.Table = t.name
	def.Timing = strings.ToUpper(strings.TrimSpace(def.Timing))
	def.Event = strings.ToUpper(strings.TrimSpace(def.Event))
	if def.Timing != "BEFORE" && def.Timing != "AFTER" {
		return nil, sql.Errorf("trigger time must be BEFORE or AFTER: %s", def.Timing)
	}
	if def.Event != "INSERT" && def.Event != "UPDATE" && def.Event != "DELETE" {
		return nil, sql.Errorf("trigger event must be INSERT, UPDATE, or DELETE: %s",
			def.Event)
	}
	if err := sql.CheckIdentifier("trigger", def.Name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(def.Body) == "" {
		return nil, sql.Errorf("the trigger body must not be empty")
	}
	if t.Trigger(def.Name) != nil {
		return nil, sql.Errorf("trigger %s already exists", def.Name)
	}

	if err := t.tables.drv.CreateTrigger(ctx, def); err != nil {
		return nil, err
	}
	trig := &Trigger{table: t, trig: def}
	t.triggers = append(t.triggers, trig)
	t.logger().WithField("trigger", def.Name).Info("create trigger")
	return trig, nil
}
