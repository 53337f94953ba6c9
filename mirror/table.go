package mirror

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/btree"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/schema"
	"github.com/leftmike/sqlmirror/sql"
)

type rowItem struct {
	index  int64
	values []sql.Value
}

func (ri rowItem) Less(item btree.Item) bool {
	return ri.index < item.(rowItem).index
}

// Table is the mirror of one table: its rows, ordered by index, and a Column for each of its
// columns. After every change, rows which are entirely Absent are dropped and the columns are
// rebuilt.
type Table struct {
	name     string
	tables   *Tables
	columns  []string
	rows     *btree.BTree
	cols     map[string]*Column
	triggers []*Trigger
}

var (
	_ condition.Table  = (*Table)(nil)
	_ condition.Source = (*Table)(nil)
	_ schema.Reference = (*Table)(nil)
)

func newTable(ctx context.Context, tbls *Tables, name string, f *frame.Frame) (*Table, error) {
	if err := sql.CheckIdentifier("table", name); err != nil {
		return nil, err
	}
	t := &Table{
		name:   name,
		tables: tbls,
	}
	t.reset(f)
	if err := t.enjoin(); err != nil {
		return nil, err
	}

	if err := t.showTriggers(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// showTriggers reads the triggers of the table from the database. Triggers already known by
// name keep their identity.
func (t *Table) showTriggers(ctx context.Context) error {
	if !t.tables.dt.Dialect.Routines() {
		return nil
	}
	defs, err := t.tables.drv.ShowTriggers(ctx, t.name)
	if err != nil {
		return err
	}
	trigs := make([]*Trigger, 0, len(defs))
	for _, def := range defs {
		trig := t.Trigger(def.Name)
		if trig == nil {
			trig = &Trigger{table: t}
		}
		trig.trig = def
		trigs = append(trigs, trig)
	}
	t.triggers = trigs
	return nil
}

// reset replaces the columns and rows with those of f.
func (t *Table) reset(f *frame.Frame) {
	t.columns = append([]string(nil), f.Columns...)
	t.rows = btree.New(16)
	for _, r := range f.Rows {
		t.rows.ReplaceOrInsert(
			rowItem{
				index:  r.Index,
				values: append([]sql.Value(nil), r.Values...),
			})
	}
}

func (t *Table) enjoin() error {
	for _, col := range t.columns {
		if err := sql.CheckIdentifier("column", col); err != nil {
			return err
		}
	}

	var drop []btree.Item
	t.rows.Ascend(
		func(item btree.Item) bool {
			if sql.AllAbsent(item.(rowItem).values) {
				drop = append(drop, item)
			}
			return true
		})
	for _, item := range drop {
		t.rows.Delete(item)
	}

	t.cols = make(map[string]*Column, len(t.columns))
	for cdx, col := range t.columns {
		var vals []sql.Value
		t.rows.Ascend(
			func(item btree.Item) bool {
				v := item.(rowItem).values[cdx]
				if !sql.IsAbsent(v) {
					vals = append(vals, v)
				}
				return true
			})
		t.cols[col] = newColumn(t, col, vals)
	}
	return nil
}

func (t *Table) upgraded(ctx context.Context) error {
	return t.tables.upgraded(ctx)
}

func (t *Table) logger() *log.Entry {
	return log.WithFields(log.Fields{"database": t.tables.name, "table": t.name})
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Tables() *Tables {
	return t.tables
}

func (t *Table) String() string {
	return fmt.Sprintf("%s.%s", t.tables.name, t.name)
}

// Columns returns the names of the columns in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) columnIndex(col string) int {
	for cdx, c := range t.columns {
		if c == col {
			return cdx
		}
	}
	return -1
}

func (t *Table) HasColumn(col string) bool {
	return t.columnIndex(col) >= 0
}

// IsColumn is true if every one of cols is a column of the table.
func (t *Table) IsColumn(cols ...string) bool {
	for _, col := range cols {
		if !t.HasColumn(col) {
			return false
		}
	}
	return true
}

func (t *Table) Column(col string) *Column {
	return t.cols[col]
}

func (t *Table) LookupColumn(key string) (condition.Column, bool) {
	c, ok := t.cols[key]
	if !ok {
		return nil, false
	}
	return c, true
}

func (t *Table) Count() int {
	return t.rows.Len()
}

func (t *Table) IsEmpty() bool {
	return t.rows.Len() == 0
}

// Frame returns a copy of the rows of the table.
func (t *Table) Frame() *frame.Frame {
	f := frame.New(t.columns)
	t.rows.Ascend(
		func(item btree.Item) bool {
			ri := item.(rowItem)
			f.Append(ri.index, append([]sql.Value(nil), ri.values...))
			return true
		})
	return f
}

func (t *Table) items() []rowItem {
	items := make([]rowItem, 0, t.rows.Len())
	t.rows.Ascend(
		func(item btree.Item) bool {
			items = append(items, item.(rowItem))
			return true
		})
	return items
}

func (t *Table) maxIndex() int64 {
	item := t.rows.Max()
	if item == nil {
		return -1
	}
	return item.(rowItem).index
}

// Types returns the metadata of each column of the table; columns reported by the database
// but not in the mirror are left out.
func (t *Table) Types(ctx context.Context) (map[string]Field, error) {
	flds, err := t.tables.drv.Fields(ctx, t.name)
	if err != nil {
		return nil, err
	}

	types := map[string]Field{}
	for _, fld := range flds {
		if !t.HasColumn(fld.Name) {
			continue
		}
		types[fld.Name] = Field{
			Number:   fld.Ordinal,
			Type:     fld.Type,
			Required: fld.NotNull,
			Default:  schema.DefaultToValue(fld.Default),
			Primary:  fld.Primary,
			raw:      fld.Default,
		}
	}
	return types, nil
}

// RequiredColumns returns the NOT NULL columns, in table order.
func (t *Table) RequiredColumns(ctx context.Context) ([]string, error) {
	types, err := t.Types(ctx)
	if err != nil {
		return nil, err
	}
	var req []string
	for _, col := range t.columns {
		if fld, ok := types[col]; ok && fld.Required {
			req = append(req, col)
		}
	}
	return req, nil
}

// PrimaryKeys returns the primary key columns, in table order.
func (t *Table) PrimaryKeys(ctx context.Context) ([]string, error) {
	types, err := t.Types(ctx)
	if err != nil {
		return nil, err
	}
	var pks []string
	for _, col := range t.columns {
		if fld, ok := types[col]; ok && fld.Primary {
			pks = append(pks, col)
		}
	}
	return pks, nil
}

type GetOptions struct {
	Columns   []string
	Condition *condition.Condition
	Distinct  bool
	// SQL selects the rows from the database instead of from the mirror.
	SQL bool
}

// Get returns the rows of the table which match the condition, either from the mirror or, with
// SQL, from the database.
func (t *Table) Get(ctx context.Context, opts GetOptions) (*frame.Frame, error) {
	for _, col := range opts.Columns {
		if !t.HasColumn(col) {
			return nil, sql.Errorf("column %s does not exist in table %s; columns: %s", col,
				t.name, strings.Join(t.columns, ", "))
		}
	}

	if opts.SQL {
		cols := opts.Columns
		if len(cols) == 0 {
			cols = t.columns
		}
		return t.tables.drv.Select(ctx, t.name, cols, opts.Distinct, clauses(opts.Condition))
	}

	f := t.Frame()
	if opts.Condition != nil {
		var err error
		f, err = opts.Condition.Apply(f)
		if err != nil {
			return nil, err
		}
	}
	if len(opts.Columns) > 0 {
		var err error
		f, err = f.Project(opts.Columns)
		if err != nil {
			return nil, sql.Errorf("%s", err)
		}
	}
	if opts.Distinct {
		f = f.Distinct()
	}
	return f, nil
}

// nextKey returns one more than the largest value of the column at cdx, or 1.
func (t *Table) nextKey(cdx int) int64 {
	var max int64
	t.rows.Ascend(
		func(item btree.Item) bool {
			switch v := item.(rowItem).values[cdx].(type) {
			case sql.Int64Value:
				if int64(v) > max {
					max = int64(v)
				}
			case sql.Float64Value:
				if int64(v) > max {
					max = int64(v)
				}
			}
			return true
		})
	return max + 1
}

// fill returns rows with a value for every column of the table: a missing primary key gets
// the next key, a missing required column is an error, and every other missing column gets
// its default. It also returns the columns to insert: those listed and the primary keys.
func (t *Table) fill(ctx context.Context, rows [][]sql.Value, cols []string) ([][]sql.Value,
	[]string, error) {

	types, err := t.Types(ctx)
	if err != nil {
		return nil, nil, err
	}

	keys := map[int]int64{}
	for cdx, col := range t.columns {
		if fld, ok := types[col]; ok && fld.Primary {
			keys[cdx] = t.nextKey(cdx)
		}
	}

	var insert []string
	for cdx, col := range t.columns {
		if _, ok := keys[cdx]; ok || contains(cols, col) {
			insert = append(insert, col)
		}
	}

	filled := make([][]sql.Value, 0, len(rows))
	for rdx, row := range rows {
		if len(row) != len(cols) {
			return nil, nil, sql.Errorf("row %d: column and value lengths are not equal", rdx)
		}
		full := make([]sql.Value, len(t.columns))
		for cdx, col := range t.columns {
			fld := types[col]
			vdx := -1
			for idx, c := range cols {
				if c == col {
					vdx = idx
					break
				}
			}
			if vdx >= 0 && (!sql.IsEmpty(row[vdx]) || !fld.Primary) {
				full[cdx] = row[vdx]
			} else if fld.Primary {
				full[cdx] = sql.Int64Value(keys[cdx])
				keys[cdx] += 1
			} else if fld.Required {
				return nil, nil, sql.Errorf("column %s is required", col)
			} else {
				full[cdx] = fld.Default
			}
		}
		filled = append(filled, full)
	}
	return filled, insert, nil
}

// Add inserts rows, each with values for cols, into the table.
func (t *Table) Add(ctx context.Context, rows [][]sql.Value, cols []string) (bool, error) {
	for cdx, col := range cols {
		if !t.HasColumn(col) {
			return false, sql.Errorf("column %s does not exist; existing columns in table %s: %s",
				col, t.name, strings.Join(t.columns, ", "))
		}
		if contains(cols[:cdx], col) {
			return false, sql.Errorf("column %s is listed more than once", col)
		}
	}
	if len(rows) == 0 {
		return false, nil
	}

	filled, insert, err := t.fill(ctx, rows, cols)
	if err != nil {
		return false, err
	}

	vals := make([][]sql.Value, 0, len(filled))
	for _, full := range filled {
		row := make([]sql.Value, 0, len(insert))
		for _, col := range insert {
			row = append(row, full[t.columnIndex(col)])
		}
		vals = append(vals, row)
	}
	_, err = t.tables.drv.Insert(ctx, t.name, insert, vals)
	if err != nil {
		return false, err
	}

	idx := t.maxIndex() + 1
	for _, full := range filled {
		t.rows.ReplaceOrInsert(rowItem{index: idx, values: full})
		idx += 1
	}
	t.logger().WithField("rows", len(filled)).Debug("add")
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

// matching returns the rows selected by cond, which must be empty or a single Where; nil
// selects every row.
func (t *Table) matching(cond *condition.Condition) (*frame.Frame, error) {
	f := t.Frame()
	if cond == nil || cond.Empty() {
		return f, nil
	}
	cls := cond.Clauses()
	if len(cls) != 1 || cls[0].Kind() != condition.WhereKind {
		return nil, sql.Errorf("the condition is not suitable; it must only be Where")
	}
	return cls[0].Transform(f)
}

func clauses(cond *condition.Condition) string {
	if cond == nil {
		return ""
	}
	return cond.String()
}

// Update sets values in the rows that match cond; values for columns that are not in the
// table are ignored.
func (t *Table) Update(ctx context.Context, values map[string]sql.Value,
	cond *condition.Condition) (bool, error) {

	var cols []string
	for col := range values {
		if t.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return false, nil
	}
	sort.Slice(cols,
		func(i, j int) bool {
			return t.columnIndex(cols[i]) < t.columnIndex(cols[j])
		})
	vals := make([]sql.Value, 0, len(cols))
	for _, col := range cols {
		vals = append(vals, values[col])
	}

	if _, err := t.matching(cond); err != nil {
		return false, err
	}
	_, err := t.tables.drv.Update(ctx, t.name, cols, vals, clauses(cond))
	if err != nil {
		return false, err
	}

	f, err := t.matching(cond)
	if err != nil {
		return false, err
	}
	for _, r := range f.Rows {
		item := t.rows.Get(rowItem{index: r.Index})
		if item == nil {
			continue
		}
		ri := item.(rowItem)
		for vdx, col := range cols {
			ri.values[t.columnIndex(col)] = vals[vdx]
		}
	}
	t.logger().WithField("rows", f.Len()).Debug("update")
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

// Delete removes the rows that match cond; a nil or empty cond removes every row.
func (t *Table) Delete(ctx context.Context, cond *condition.Condition) (bool, error) {
	if _, err := t.matching(cond); err != nil {
		return false, err
	}
	_, err := t.tables.drv.Delete(ctx, t.name, clauses(cond))
	if err != nil {
		return false, err
	}

	f, err := t.matching(cond)
	if err != nil {
		return false, err
	}
	for _, r := range f.Rows {
		t.rows.Delete(rowItem{index: r.Index})
	}
	t.logger().WithField("rows", f.Len()).Debug("delete")
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

// AddColumn adds a column declared by spec. The existing rows get values, in index order, and
// then the default for the column.
func (t *Table) AddColumn(ctx context.Context, col string, values []sql.Value,
	spec ...string) (bool, error) {

	if err := sql.CheckIdentifier("column", col); err != nil {
		return false, err
	}
	if t.HasColumn(col) {
		return false, sql.Errorf("column %s already exists", col)
	}
	if len(spec) == 0 {
		return false, sql.Errorf("column %s: arguments must not be empty", col)
	}
	n := t.rows.Len()
	if len(values) > n {
		return false, sql.Errorf("column %s: %d values for %d rows", col, len(values), n)
	}
	defs, err := schema.DefaultValues(col, spec, n-len(values), false)
	if err != nil {
		return false, err
	}

	err = t.tables.drv.AddColumn(ctx, t.name, col, strings.Join(spec, " "))
	if err != nil {
		return false, err
	}

	vals := append(append([]sql.Value(nil), values...), defs...)
	t.columns = append(t.columns, col)
	for vdx, ri := range t.items() {
		ri.values = append(ri.values, vals[vdx])
		t.rows.ReplaceOrInsert(ri)
	}
	t.logger().WithField("column", col).Debug("add column")
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

// EditColumn changes the definition of col to changes, joined by spaces.
func (t *Table) EditColumn(ctx context.Context, col string, changes ...string) (bool, error) {
	if !t.HasColumn(col) {
		return false, sql.Errorf("column %s does not exist", col)
	}
	if len(changes) == 0 {
		return false, sql.Errorf("column %s: arguments must not be empty", col)
	}
	err := t.tables.drv.AlterColumn(ctx, t.name, col, strings.Join(changes, " "))
	if err != nil {
		return false, err
	}
	t.logger().WithField("column", col).Debug("edit column")
	return true, t.upgraded(ctx)
}

func (t *Table) RenameColumn(ctx context.Context, col, name string) (bool, error) {
	if !t.HasColumn(col) {
		return false, sql.Errorf("column %s does not exist", col)
	}
	if t.HasColumn(name) {
		return false, sql.Errorf("column %s already exists", name)
	}
	if err := sql.CheckIdentifier("column", name); err != nil {
		return false, err
	}
	err := t.tables.drv.RenameColumn(ctx, t.name, col, name)
	if err != nil {
		return false, err
	}

	t.columns[t.columnIndex(col)] = name
	t.logger().WithFields(log.Fields{"column": col, "name": name}).Debug("rename column")
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

func (t *Table) RemoveColumn(ctx context.Context, col string) (bool, error) {
	cdx := t.columnIndex(col)
	if cdx < 0 {
		return false, sql.Errorf("column %s does not exist", col)
	}
	err := t.tables.drv.DropColumn(ctx, t.name, col)
	if err != nil {
		return false, err
	}

	t.columns = append(t.columns[:cdx:cdx], t.columns[cdx+1:]...)
	for _, ri := range t.items() {
		ri.values = append(ri.values[:cdx:cdx], ri.values[cdx+1:]...)
		t.rows.ReplaceOrInsert(ri)
	}
	t.logger().WithField("column", col).Debug("remove column")
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

// Rename renames the table.
func (t *Table) Rename(ctx context.Context, name string) (bool, error) {
	return t.tables.RenameTable(ctx, t.name, name)
}

// Remove drops the table.
func (t *Table) Remove(ctx context.Context) (bool, error) {
	return t.tables.Remove(ctx, t.name)
}

func (t *Table) Foreigns(ctx context.Context) ([]driver.Foreign, error) {
	return t.tables.drv.ShowForeign(ctx, t.name)
}

func (t *Table) Indexes(ctx context.Context) ([]driver.Index, error) {
	return t.tables.drv.ShowIndex(ctx, t.name)
}

func (t *Table) SetIndex(ctx context.Context, idx *schema.Index) (bool, error) {
	if idx == nil {
		return false, sql.Errorf("missing index")
	}
	for _, col := range idx.Columns() {
		if !t.HasColumn(col) {
			return false, sql.Errorf("index %s: column %s does not exist", idx.Name(), col)
		}
	}
	err := t.tables.drv.CreateIndex(ctx, idx.Render(t.tables.drv.Quote(t.name)))
	if err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

func (t *Table) DropIndex(ctx context.Context, name string) (bool, error) {
	if err := sql.CheckIdentifier("index", name); err != nil {
		return false, err
	}
	err := t.tables.drv.DropIndex(ctx, t.name, name)
	if err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

func (t *Table) Commit(ctx context.Context) error {
	return t.tables.drv.Commit(ctx)
}

func (t *Table) Rollback() error {
	return t.tables.drv.Rollback()
}
