package sql_test

import (
	"errors"
	"testing"

	"github.com/leftmike/sqlmirror/sql"
)

func TestValidIdentifier(t *testing.T) {
	cases := []struct {
		s  string
		ok bool
	}{
		{"abc", true},
		{"_abc", true},
		{"Abc_123", true},
		{"a", true},
		{"", false},
		{"1abc", false},
		{"ab c", false},
		{"ab-c", false},
		{"abc;", false},
		{"таблица", false},
	}

	for _, c := range cases {
		if sql.ValidIdentifier(c.s) != c.ok {
			t.Errorf("ValidIdentifier(%q) got %v want %v", c.s, !c.ok, c.ok)
		}
	}

	err := sql.CheckIdentifier("table", "1abc")
	var qe *sql.QueryError
	if !errors.As(err, &qe) {
		t.Errorf("CheckIdentifier(table, 1abc) got %v want QueryError", err)
	}
}

func TestLookupDialect(t *testing.T) {
	cases := []struct {
		s  string
		d  sql.Dialect
		ok bool
	}{
		{"mysql", sql.MySQL, true},
		{"postgres", sql.PostgreSQL, true},
		{"PostgreSQL", sql.PostgreSQL, true},
		{"sqlite", sql.SQLite, true},
		{"_1c", sql.OneC, true},
		{"db2", sql.NoDialect, false},
	}

	for _, c := range cases {
		d, ok := sql.LookupDialect(c.s)
		if d != c.d || ok != c.ok {
			t.Errorf("LookupDialect(%q) got %v, %v want %v, %v", c.s, d, ok, c.d, c.ok)
		}
	}
}
