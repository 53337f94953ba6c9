package sqlite_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/sqlite"
	"github.com/leftmike/sqlmirror/sql"
)

func openTest(t *testing.T) *sqlite.Driver {
	t.Helper()

	d, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"),
		driver.Options{AutoCommit: true})
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSplitDefinitions(t *testing.T) {
	cases := []struct {
		s    string
		defs []string
	}{
		{s: "a INTEGER", defs: []string{"a INTEGER"}},
		{
			s:    "a INTEGER PRIMARY KEY, b DECIMAL(10, 2), c TEXT DEFAULT 'x, y'",
			defs: []string{"a INTEGER PRIMARY KEY", "b DECIMAL(10, 2)", "c TEXT DEFAULT 'x, y'"},
		},
		{
			s:    `"a" INTEGER, PRIMARY KEY ("a", b)`,
			defs: []string{`"a" INTEGER`, `PRIMARY KEY ("a", b)`},
		},
	}

	for _, c := range cases {
		defs := sqlite.SplitDefinitions(c.s)
		if !reflect.DeepEqual(defs, c.defs) {
			t.Errorf("SplitDefinitions(%s) got %#v want %#v", c.s, defs, c.defs)
		}
	}
}

func TestDriver(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	if d.Dialect() != sql.SQLite {
		t.Errorf("Dialect() got %s want sqlite", d.Dialect())
	}
	vers, err := d.Version(ctx)
	if err != nil {
		t.Fatalf("Version() failed with %s", err)
	} else if vers == "" {
		t.Errorf("Version() got empty version")
	}

	err = d.Create(ctx, "people",
		[]string{
			`"id" INTEGER NOT NULL PRIMARY KEY`,
			`"name" TEXT`,
			`"age" INTEGER DEFAULT 18`,
		}, true, "")
	if err != nil {
		t.Fatalf("Create(people) failed with %s", err)
	}

	tbls, err := d.ShowTables(ctx)
	if err != nil {
		t.Fatalf("ShowTables() failed with %s", err)
	} else if !reflect.DeepEqual(tbls, []string{"people"}) {
		t.Errorf("ShowTables() got %v want [people]", tbls)
	}

	cnt, err := d.Insert(ctx, "people", []string{"id", "name", "age"},
		[][]sql.Value{
			{sql.Int64Value(1), sql.StringValue("ann"), sql.Int64Value(10)},
			{sql.Int64Value(2), sql.StringValue("bob"), sql.Int64Value(20)},
			{sql.Int64Value(3), sql.StringValue("cat"), nil},
		})
	if err != nil {
		t.Fatalf("Insert() failed with %s", err)
	} else if cnt != 3 {
		t.Errorf("Insert() got %d rows want 3", cnt)
	}

	f, err := d.Select(ctx, "people", nil, false, "WHERE (age > 15) ORDER BY id")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	}
	if !reflect.DeepEqual(f.Columns, []string{"id", "name", "age"}) {
		t.Errorf("Select() got columns %v", f.Columns)
	}
	if f.Len() != 1 || sql.Format(f.Rows[0].Values[1]) != "'bob'" {
		t.Errorf("Select() got %v", f.Rows)
	}

	cols, err := d.ShowColumns(ctx, "people")
	if err != nil {
		t.Fatalf("ShowColumns() failed with %s", err)
	} else if !reflect.DeepEqual(cols, []string{"id", "name", "age"}) {
		t.Errorf("ShowColumns() got %v", cols)
	}

	fields, err := d.Fields(ctx, "people")
	if err != nil {
		t.Fatalf("Fields() failed with %s", err)
	}
	if len(fields) != 3 {
		t.Fatalf("Fields() got %d fields want 3", len(fields))
	}
	if fields[0].Name != "id" || !fields[0].Primary || !fields[0].NotNull ||
		fields[0].Ordinal != 1 || fields[0].Type != "INTEGER" {
		t.Errorf("Fields()[0] got %+v", fields[0])
	}
	if fields[2].Default == nil || *fields[2].Default != "18" || fields[2].Ordinal != 3 {
		t.Errorf("Fields()[2] got %+v", fields[2])
	}
	if fields[1].Default != nil || fields[1].Primary {
		t.Errorf("Fields()[1] got %+v", fields[1])
	}

	cnt, err = d.Update(ctx, "people", []string{"age"}, []sql.Value{sql.Int64Value(40)},
		"WHERE (name = 'cat')")
	if err != nil {
		t.Fatalf("Update() failed with %s", err)
	} else if cnt != 1 {
		t.Errorf("Update() got %d rows want 1", cnt)
	}

	err = d.CreateIndex(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS people_name ON people (name)`)
	if err != nil {
		t.Fatalf("CreateIndex() failed with %s", err)
	}
	idxs, err := d.ShowIndex(ctx, "people")
	if err != nil {
		t.Fatalf("ShowIndex() failed with %s", err)
	}
	var found bool
	for _, idx := range idxs {
		if idx.Name == "people_name" {
			found = true
			if !idx.Unique || !reflect.DeepEqual(idx.Columns, []string{"name"}) {
				t.Errorf("ShowIndex() got %+v", idx)
			}
		}
	}
	if !found {
		t.Errorf("ShowIndex() did not find people_name: %v", idxs)
	}

	err = d.AlterColumn(ctx, "people", "name", "TEXT NOT NULL DEFAULT 'none'")
	if err != nil {
		t.Fatalf("AlterColumn() failed with %s", err)
	}
	fields, err = d.Fields(ctx, "people")
	if err != nil {
		t.Fatalf("Fields() failed with %s", err)
	}
	if !fields[1].NotNull || fields[1].Default == nil || *fields[1].Default != "'none'" {
		t.Errorf("Fields()[1] after AlterColumn got %+v", fields[1])
	}
	f, err = d.Select(ctx, "people", []string{"age"}, false, "WHERE (id = 3)")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	} else if f.Len() != 1 || sql.Format(f.Rows[0].Values[0]) != "40" {
		t.Errorf("Select() after AlterColumn got %v", f.Rows)
	}

	err = d.RenameColumn(ctx, "people", "age", "years")
	if err != nil {
		t.Fatalf("RenameColumn() failed with %s", err)
	}
	err = d.AddColumn(ctx, "people", "email", "TEXT")
	if err != nil {
		t.Fatalf("AddColumn() failed with %s", err)
	}
	err = d.DropColumn(ctx, "people", "email")
	if err != nil {
		t.Fatalf("DropColumn() failed with %s", err)
	}
	cols, err = d.ShowColumns(ctx, "people")
	if err != nil {
		t.Fatalf("ShowColumns() failed with %s", err)
	} else if !reflect.DeepEqual(cols, []string{"id", "name", "years"}) {
		t.Errorf("ShowColumns() got %v", cols)
	}

	f, err = d.Select(ctx, "people", []string{"years"}, true, "ORDER BY years")
	if err != nil {
		t.Fatalf("Select(distinct) failed with %s", err)
	} else if f.Len() != 3 {
		t.Errorf("Select(distinct) got %d rows want 3", f.Len())
	}

	cnt, err = d.Delete(ctx, "people", "WHERE (id < 3)")
	if err != nil {
		t.Fatalf("Delete() failed with %s", err)
	} else if cnt != 2 {
		t.Errorf("Delete() got %d rows want 2", cnt)
	}

	err = d.RenameTable(ctx, "people", "persons")
	if err != nil {
		t.Fatalf("RenameTable() failed with %s", err)
	}
	err = d.Drop(ctx, "persons", false)
	if err != nil {
		t.Fatalf("Drop() failed with %s", err)
	}
	tbls, err = d.ShowTables(ctx)
	if err != nil {
		t.Fatalf("ShowTables() failed with %s", err)
	} else if len(tbls) != 0 {
		t.Errorf("ShowTables() got %v want none", tbls)
	}
}

func TestForeign(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	err := d.Create(ctx, "owners", []string{`"id" INTEGER PRIMARY KEY`}, false, "")
	if err != nil {
		t.Fatalf("Create(owners) failed with %s", err)
	}
	err = d.Create(ctx, "pets",
		[]string{`"id" INTEGER PRIMARY KEY`, `"owner" INTEGER REFERENCES owners (id)`}, false, "")
	if err != nil {
		t.Fatalf("Create(pets) failed with %s", err)
	}

	fks, err := d.ShowForeign(ctx, "pets")
	if err != nil {
		t.Fatalf("ShowForeign() failed with %s", err)
	}
	if len(fks) != 1 || fks[0].Table != "owners" || fks[0].From != "owner" ||
		fks[0].To != "id" {
		t.Errorf("ShowForeign() got %+v", fks)
	}

	err = d.CreateForeign(ctx, "pets", "owner", "REFERENCES owners (id)")
	if err == nil {
		t.Errorf("CreateForeign() did not fail")
	}
}

func TestRoutines(t *testing.T) {
	ctx := context.Background()
	d := openTest(t)

	_, err := d.ShowProcedures(ctx)
	if err == nil {
		t.Errorf("ShowProcedures() did not fail")
	}
	_, err = d.RunFunction(ctx, "f", nil)
	if err == nil {
		t.Errorf("RunFunction() did not fail")
	}
	err = d.DropProcedure(ctx, "p", true)
	if err == nil {
		t.Errorf("DropProcedure() did not fail")
	}
	err = d.CreateTrigger(ctx, driver.Trigger{Name: "t", Table: "x", Timing: "BEFORE",
		Event: "INSERT", Body: "SELECT 1"})
	if err == nil {
		t.Errorf("CreateTrigger() did not fail")
	}
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tx.db")
	d, err := sqlite.Open(ctx, path, driver.Options{})
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}
	defer d.Close()

	err = d.Create(ctx, "t", []string{`"c" INTEGER`}, false, "")
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	err = d.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit() failed with %s", err)
	}

	_, err = d.Insert(ctx, "t", []string{"c"}, [][]sql.Value{{sql.Int64Value(1)}})
	if err != nil {
		t.Fatalf("Insert() failed with %s", err)
	}
	err = d.Rollback()
	if err != nil {
		t.Fatalf("Rollback() failed with %s", err)
	}
	f, err := d.Select(ctx, "t", nil, false, "")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	} else if f.Len() != 0 {
		t.Errorf("Select() after Rollback got %d rows want 0", f.Len())
	}

	_, err = d.Insert(ctx, "t", []string{"c"}, [][]sql.Value{{sql.Int64Value(2)}})
	if err != nil {
		t.Fatalf("Insert() failed with %s", err)
	}
	err = d.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit() failed with %s", err)
	}
	f, err = d.Select(ctx, "t", nil, false, "")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	} else if f.Len() != 1 {
		t.Errorf("Select() after Commit got %d rows want 1", f.Len())
	}
}
