package testutil_test

import (
	"context"
	"testing"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/sql"
	"github.com/leftmike/sqlmirror/testutil"
)

func strPtr(s string) *string {
	return &s
}

func TestParseField(t *testing.T) {
	cases := []struct {
		def string
		fld driver.Field
	}{
		{def: "id INTEGER PRIMARY KEY", fld: driver.Field{Name: "id", Type: "INTEGER",
			NotNull: true, Primary: true}},
		{def: "`name` varchar(32) NOT NULL", fld: driver.Field{Name: "name",
			Type: "VARCHAR(32)", NotNull: true}},
		{def: `"age" INT DEFAULT 18`, fld: driver.Field{Name: "age", Type: "INT",
			Default: strPtr("18")}},
		{def: "kind TEXT DEFAULT('cat')", fld: driver.Field{Name: "kind", Type: "TEXT",
			Default: strPtr("'cat'")}},
		{def: "note TEXT NULL DEFAULT 'a b'", fld: driver.Field{Name: "note", Type: "TEXT",
			Default: strPtr("'a b'")}},
		{def: "flag", fld: driver.Field{Name: "flag"}},
	}

	for _, c := range cases {
		fld := testutil.ParseField(c.def)
		if !testutil.DeepEqual(fld, c.fld) {
			t.Errorf("ParseField(%s) got %+v want %+v", c.def, fld, c.fld)
		}
	}
}

func TestDriver(t *testing.T) {
	ctx := context.Background()
	fd := testutil.NewDriver(sql.SQLite)

	err := fd.Create(ctx, "people", []string{"id INTEGER PRIMARY KEY", "name TEXT"}, false, "")
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	n, err := fd.Insert(ctx, "people", []string{"name"},
		[][]sql.Value{{sql.StringValue("ann")}, {sql.StringValue("bob")}})
	if err != nil {
		t.Fatalf("Insert() failed with %s", err)
	} else if n != 2 {
		t.Errorf("Insert() got %d want 2", n)
	}

	f, err := fd.Select(ctx, "people", []string{"name"}, false, "")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	}
	vals, _ := f.Column("name")
	if !testutil.DeepEqual(vals, []sql.Value{sql.StringValue("ann"), sql.StringValue("bob")}) {
		t.Errorf("Select() got %v", vals)
	}

	if err := fd.AddColumn(ctx, "people", "age", "INT NOT NULL"); err != nil {
		t.Fatalf("AddColumn() failed with %s", err)
	}
	flds, err := fd.Fields(ctx, "people")
	if err != nil {
		t.Fatalf("Fields() failed with %s", err)
	}
	if len(flds) != 3 || flds[2].Ordinal != 3 || !flds[2].NotNull {
		t.Errorf("Fields() got %+v", flds)
	}

	if err := fd.CreateProcedure(ctx, driver.Routine{Name: "p"}); err == nil {
		t.Error("CreateProcedure() on sqlite did not fail")
	}

	fd.Fail[driver.DeleteCommand] = sql.Errorf("locked")
	if _, err := fd.Delete(ctx, "people", ""); err == nil {
		t.Error("Delete() did not fail")
	}
	want := []driver.Command{
		driver.CreateCommand,
		driver.InsertCommand,
		driver.SelectCommand,
		driver.AddColumnCommand,
		driver.FieldsCommand,
		driver.DeleteCommand,
	}
	if cmds := fd.Commands(); !testutil.DeepEqual(cmds, want) {
		t.Errorf("Commands() got %v want %v", cmds, want)
	}
}
