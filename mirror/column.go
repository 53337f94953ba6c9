package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

// Column is the values of one column of a table, in row order, without Absent values. The
// metadata methods query the database on every call.
type Column struct {
	table  *Table
	key    string
	values []sql.Value
	orig   []sql.Value
}

var _ condition.Column = (*Column)(nil)

func newColumn(t *Table, key string, vals []sql.Value) *Column {
	var values []sql.Value
	for _, v := range vals {
		if !sql.IsAbsent(v) {
			values = append(values, v)
		}
	}
	return &Column{
		table:  t,
		key:    key,
		values: values,
		orig:   append([]sql.Value(nil), values...),
	}
}

func (c *Column) Key() string {
	return c.key
}

// Name is the table qualified name of the column.
func (c *Column) Name() string {
	return c.table.name + "." + c.key
}

func (c *Column) String() string {
	return c.Name()
}

func (c *Column) Table() *Table {
	return c.table
}

func (c *Column) Values() []sql.Value {
	return append([]sql.Value(nil), c.values...)
}

func (c *Column) field(ctx context.Context) (Field, bool, error) {
	types, err := c.table.Types(ctx)
	if err != nil {
		return Field{}, false, err
	}
	fld, ok := types[c.key]
	return fld, ok, nil
}

func (c *Column) Type(ctx context.Context) (string, error) {
	fld, _, err := c.field(ctx)
	return fld.Type, err
}

func (c *Column) Default(ctx context.Context) (sql.Value, error) {
	fld, _, err := c.field(ctx)
	return fld.Default, err
}

func (c *Column) Required(ctx context.Context) (bool, error) {
	fld, _, err := c.field(ctx)
	return fld.Required, err
}

func (c *Column) IsPrimary(ctx context.Context) (bool, error) {
	fld, _, err := c.field(ctx)
	return fld.Primary, err
}

// Number is the ordinal position of the column in the database, or -1.
func (c *Column) Number(ctx context.Context) (int, error) {
	fld, ok, err := c.field(ctx)
	if err != nil {
		return -1, err
	} else if !ok {
		return -1, nil
	}
	return fld.Number, nil
}

// definition returns the current definition of the column after change is applied to it.
func (c *Column) definition(ctx context.Context, change func(fld *Field, def *string)) (string,
	error) {

	fld, ok, err := c.field(ctx)
	if err != nil {
		return "", err
	} else if !ok {
		return "", sql.Errorf("column %s not found in the database", c.Name())
	}

	dt := c.table.tables.dt
	var def string
	if fld.raw != nil {
		// CURRENT_TIMESTAMP and friends decode to the current time; keep them as declared.
		if _, ok := fld.Default.(sql.TimeValue); ok &&
			!strings.ContainsAny(*fld.raw, "0123456789") {
			def = "DEFAULT " + *fld.raw
		} else {
			def = dt.Default(fld.Default)
		}
	}
	change(&fld, &def)

	parts := []string{fld.Type, dt.Null(!fld.Required)}
	if def != "" {
		parts = append(parts, def)
	}
	if fld.Primary {
		parts = append(parts, dt.Primary())
	}
	return strings.Join(parts, " "), nil
}

func (c *Column) edit(ctx context.Context, change func(fld *Field, def *string)) (bool, error) {
	def, err := c.definition(ctx, change)
	if err != nil {
		return false, err
	}
	return c.table.EditColumn(ctx, c.key, def)
}

// SetDefault changes the default of the column to v; v may be any value accepted by
// sql.ValueOf.
func (c *Column) SetDefault(ctx context.Context, v interface{}) (bool, error) {
	return c.edit(ctx,
		func(fld *Field, def *string) {
			*def = c.table.tables.dt.Default(v)
		})
}

func (c *Column) SetType(ctx context.Context, typ string) (bool, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return false, sql.Errorf("column %s: missing data type", c.Name())
	}
	return c.edit(ctx,
		func(fld *Field, def *string) {
			fld.Type = typ
		})
}

func (c *Column) SetRequired(ctx context.Context, on bool) (bool, error) {
	return c.edit(ctx,
		func(fld *Field, def *string) {
			fld.Required = on
		})
}

func (c *Column) SetPrimary(ctx context.Context, on bool) (bool, error) {
	return c.edit(ctx,
		func(fld *Field, def *string) {
			fld.Primary = on
		})
}

// Edit replaces the definition of the column with changes.
func (c *Column) Edit(ctx context.Context, changes ...string) (bool, error) {
	return c.table.EditColumn(ctx, c.key, changes...)
}

func (c *Column) Rename(ctx context.Context, name string) (bool, error) {
	return c.table.RenameColumn(ctx, c.key, name)
}

func (c *Column) Remove(ctx context.Context) (bool, error) {
	return c.table.RemoveColumn(ctx, c.key)
}

// Clearing sets the column to its default in the database and leaves it Absent in the mirror.
// A primary key, or a required column without a default, can not be cleared.
func (c *Column) Clearing(ctx context.Context) (bool, error) {
	fld, _, err := c.field(ctx)
	if err != nil {
		return false, err
	}
	if (fld.Required && fld.Default == nil) || fld.Primary {
		return false, sql.Errorf("column %s can not be cleared because it is required", c.key)
	}

	t := c.table
	ok, err := t.Update(ctx, map[string]sql.Value{c.key: fld.Default}, nil)
	if err != nil || !ok {
		return ok, err
	}

	cdx := t.columnIndex(c.key)
	for _, ri := range t.items() {
		ri.values[cdx] = sql.Absent
	}
	if err := t.enjoin(); err != nil {
		return false, err
	}
	return true, t.upgraded(ctx)
}

// Restore puts back the values the column had when it was built; the table is not changed.
func (c *Column) Restore() {
	c.values = append([]sql.Value(nil), c.orig...)
}

// Foreign returns, for each foreign key from this column, the rows of the table joined with
// the rows of the referenced table.
func (c *Column) Foreign(ctx context.Context) (map[string]*frame.Frame, error) {
	fks, err := c.table.Foreigns(ctx)
	if err != nil {
		return nil, err
	}

	m := map[string]*frame.Frame{}
	for _, fk := range fks {
		if fk.From != c.key {
			continue
		}
		refs := c.table.tables.Table(fk.Table)
		if refs == nil {
			return nil, sql.Errorf("foreign key %s: table %s not found", fk.Name, fk.Table)
		}
		f, err := merge(c.table.Frame(), refs.Frame(), fk.From, fk.To)
		if err != nil {
			return nil, err
		}
		m[fk.Name] = f
	}
	return m, nil
}

// SetForeign adds a foreign key named name from this column to the primary key of refs. It
// does nothing on sqlite.
func (c *Column) SetForeign(ctx context.Context, name string, refs *Table) (bool, error) {
	tbls := c.table.tables
	if tbls.dt.Dialect == sql.SQLite {
		return false, nil
	}
	if err := sql.CheckIdentifier("foreign key", name); err != nil {
		return false, err
	}
	fks, err := c.table.Foreigns(ctx)
	if err != nil {
		return false, err
	}
	for _, fk := range fks {
		if fk.Name == name {
			return false, sql.Errorf("foreign key name %s is already taken; choose another",
				name)
		}
	}
	if refs == nil {
		return false, sql.Errorf("table was not found or does not exist")
	}

	constraint, err := tbls.dt.Foreign(ctx, c.table, c.key, refs, name)
	if err != nil {
		return false, err
	}
	err = tbls.drv.CreateForeign(ctx, c.table.name, c.key, constraint)
	if err != nil {
		return false, err
	}
	return true, c.table.upgraded(ctx)
}

var sqlAggregates = map[string]string{
	"max":    "MAX",
	"min":    "MIN",
	"len":    "COUNT",
	"length": "COUNT",
	"count":  "COUNT",
	"sum":    "SUM",
	"avg":    "AVG",
	"round":  "ROUND",
}

// SQL returns the SQL spelling of the aggregate fn over the column: MAX(t.c); round takes
// the number of digits.
func (c *Column) SQL(fn string, digits ...int) (string, error) {
	agg, ok := sqlAggregates[strings.ToLower(fn)]
	if !ok {
		return "", sql.Errorf("aggregate %s does not exist", fn)
	}
	if agg == "ROUND" {
		k := 0
		if len(digits) > 0 {
			k = digits[0]
		}
		return fmt.Sprintf("ROUND(%s,%d)", c.Name(), k), nil
	}
	return fmt.Sprintf("%s(%s)", agg, c.Name()), nil
}
