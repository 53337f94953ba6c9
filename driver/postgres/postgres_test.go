package postgres_test

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/postgres"
	"github.com/leftmike/sqlmirror/sql"
)

func TestAlterActions(t *testing.T) {
	cases := []struct {
		col, def string
		actions  []string
	}{
		{
			col:     "age",
			def:     "BIGINT",
			actions: []string{`ALTER COLUMN "age" TYPE BIGINT USING "age"::BIGINT`},
		},
		{
			col: "name",
			def: "TEXT NOT NULL DEFAULT 'none'",
			actions: []string{
				`ALTER COLUMN "name" TYPE TEXT USING "name"::TEXT`,
				`ALTER COLUMN "name" SET NOT NULL`,
				`ALTER COLUMN "name" SET DEFAULT 'none'`,
			},
		},
		{
			col: "price",
			def: "NUMERIC(10, 2) NULL",
			actions: []string{
				`ALTER COLUMN "price" TYPE NUMERIC(10, 2) USING "price"::NUMERIC(10, 2)`,
				`ALTER COLUMN "price" DROP NOT NULL`,
			},
		},
		{
			col:     "note",
			def:     "DEFAULT NULL",
			actions: []string{`ALTER COLUMN "note" SET DEFAULT NULL`},
		},
		{col: "x", def: ""},
	}

	for _, c := range cases {
		actions := postgres.AlterActions(c.col, c.def)
		if !reflect.DeepEqual(actions, c.actions) {
			t.Errorf("AlterActions(%s, %s) got %#v want %#v", c.col, c.def, actions, c.actions)
		}
	}
}

// TestPostgres runs against the database in SQLMIRROR_POSTGRES_DSN, if set.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("SQLMIRROR_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SQLMIRROR_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	d, err := postgres.Open(ctx, dsn, driver.Options{AutoCommit: true})
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}
	defer d.Close()

	d.Drop(ctx, "sqlmirror_test", true)
	err = d.Create(ctx, "sqlmirror_test",
		[]string{`"id" SERIAL PRIMARY KEY`, `"name" TEXT NOT NULL`}, false, "")
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	defer d.Drop(ctx, "sqlmirror_test", true)

	_, err = d.Insert(ctx, "sqlmirror_test", []string{"name"},
		[][]sql.Value{{sql.StringValue("ann")}, {sql.StringValue("bob")}})
	if err != nil {
		t.Fatalf("Insert() failed with %s", err)
	}

	fields, err := d.Fields(ctx, "sqlmirror_test")
	if err != nil {
		t.Fatalf("Fields() failed with %s", err)
	}
	if len(fields) != 2 || !fields[0].Primary || !fields[1].NotNull || fields[0].Default == nil {
		t.Errorf("Fields() got %+v", fields)
	}

	f, err := d.Select(ctx, "sqlmirror_test", []string{"name"}, false, "ORDER BY name DESC")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	} else if f.Len() != 2 || sql.Text(f.Rows[0].Values[0]) != "bob" {
		t.Errorf("Select() got %v", f.Rows)
	}

	err = d.AlterColumn(ctx, "sqlmirror_test", "name", "VARCHAR(32) NULL")
	if err != nil {
		t.Fatalf("AlterColumn() failed with %s", err)
	}
}
