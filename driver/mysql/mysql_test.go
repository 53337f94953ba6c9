package mysql_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/mysql"
	"github.com/leftmike/sqlmirror/sql"
)

func TestDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
		fail bool
	}{
		{dsn: "user:pass@tcp(localhost:3306)/test", want: "parseTime=true"},
		{dsn: "user@unix(/tmp/mysql.sock)/test?charset=utf8mb4", want: "parseTime=true"},
		{dsn: "user:pass@tcp(localhost:3306)test", fail: true},
	}

	for _, c := range cases {
		dsn, err := mysql.DSN(c.dsn)
		if c.fail {
			if err == nil {
				t.Errorf("DSN(%s) did not fail", c.dsn)
			}
		} else if err != nil {
			t.Errorf("DSN(%s) failed with %s", c.dsn, err)
		} else if !strings.Contains(dsn, c.want) {
			t.Errorf("DSN(%s) got %s want %s", c.dsn, dsn, c.want)
		}
	}
}

func TestQuote(t *testing.T) {
	if q := mysql.Quote("a`b"); q != "`a``b`" {
		t.Errorf("Quote(a`b) got %s", q)
	}
}

// TestMySQL runs against the database in SQLMIRROR_MYSQL_DSN, if set.
func TestMySQL(t *testing.T) {
	dsn := os.Getenv("SQLMIRROR_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SQLMIRROR_MYSQL_DSN not set")
	}

	ctx := context.Background()
	d, err := mysql.Open(ctx, dsn, driver.Options{AutoCommit: true})
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}
	defer d.Close()

	d.Drop(ctx, "sqlmirror_test", true)
	err = d.Create(ctx, "sqlmirror_test",
		[]string{"`id` INT AUTO_INCREMENT PRIMARY KEY", "`name` VARCHAR(32) NOT NULL",
			"`price` DECIMAL(10,2) DEFAULT 5"},
		false, "ENGINE = InnoDB")
	if err != nil {
		t.Fatalf("Create() failed with %s", err)
	}
	defer d.Drop(ctx, "sqlmirror_test", true)

	_, err = d.Insert(ctx, "sqlmirror_test", []string{"name", "price"},
		[][]sql.Value{{sql.StringValue("ann"), sql.Float64Value(1.5)}})
	if err != nil {
		t.Fatalf("Insert() failed with %s", err)
	}

	fields, err := d.Fields(ctx, "sqlmirror_test")
	if err != nil {
		t.Fatalf("Fields() failed with %s", err)
	}
	if len(fields) != 3 || !fields[0].Primary || !fields[1].NotNull ||
		fields[2].Default == nil {
		t.Errorf("Fields() got %+v", fields)
	}

	f, err := d.Select(ctx, "sqlmirror_test", []string{"id", "price"}, false, "")
	if err != nil {
		t.Fatalf("Select() failed with %s", err)
	} else if f.Len() != 1 || sql.Format(f.Rows[0].Values[0]) != "1" ||
		sql.Format(f.Rows[0].Values[1]) != "1.5" {
		t.Errorf("Select() got %v", f.Rows)
	}

	err = d.AlterColumn(ctx, "sqlmirror_test", "name", "VARCHAR(64) NULL")
	if err != nil {
		t.Fatalf("AlterColumn() failed with %s", err)
	}
}
