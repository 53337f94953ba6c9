package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leftmike/sqlmirror/config"
	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/driver/sqlite"
	"github.com/leftmike/sqlmirror/repl"
	"github.com/leftmike/sqlmirror/sql"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfg = &config.Config{}
	usedFlags = map[string]struct{}{}
	configFile = "sqlmirror.hcl"
	noConfig = false
	logLevel = "info"
	limit = 0
	threads = false
	reload = false
	query = repl.Query{}

	var buf bytes.Buffer
	sqlmirrorCmd.SetOut(&buf)
	sqlmirrorCmd.SetErr(&buf)
	sqlmirrorCmd.SetArgs(append(args, "--log-stderr"))
	err := sqlmirrorCmd.Execute()
	return buf.String(), err
}

func shopConfig(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "shop.db")
	d, err := sqlite.Open(ctx, dsn, driver.Options{AutoCommit: true})
	if err != nil {
		t.Fatalf("Open() failed with %s", err)
	}
	defer d.Close()

	err = d.Create(ctx, "items", []string{`"id" INTEGER PRIMARY KEY`, `"name" TEXT`}, false, "")
	if err != nil {
		t.Fatalf("Create(items) failed with %s", err)
	}
	_, err = d.Insert(ctx, "items", []string{"id", "name"},
		[][]sql.Value{
			{sql.Int64Value(1), sql.StringValue("pen")},
			{sql.Int64Value(2), sql.StringValue("ink")},
			{sql.Int64Value(3), sql.StringValue("pad")},
		})
	if err != nil {
		t.Fatalf("Insert(items) failed with %s", err)
	}

	filename := filepath.Join(dir, "sqlmirror.hcl")
	s := fmt.Sprintf(`
log_level = "warn"

source "shop" {
	method = "sqlite"
	dsn = %q
}
`, dsn)
	if err := ioutil.WriteFile(filename, []byte(s), 0644); err != nil {
		t.Fatalf("WriteFile() failed with %s", err)
	}
	return filename
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--no-config")
	if err != nil {
		t.Fatalf("version failed with %s", err)
	}
	if out != sql.Version()+"\n" {
		t.Errorf("version got %s want %s", out, sql.Version())
	}
}

func TestLoad(t *testing.T) {
	filename := shopConfig(t)

	out, err := execute(t, "load", "--config-file", filename)
	if err != nil {
		t.Fatalf("load failed with %s", err)
	}
	for _, s := range []string{"sqlite", "shop", "items", "(1 rows)"} {
		if !strings.Contains(out, s) {
			t.Errorf("load got %s want %s", out, s)
		}
	}
	if logLevel != "warn" {
		t.Errorf("load got log level %s want warn", logLevel)
	}

	if _, err := execute(t, "load", "--no-config"); err == nil {
		t.Error("load without sources did not fail")
	}
	missing := filepath.Join(t.TempDir(), "missing.hcl")
	if _, err := execute(t, "load", "--config-file", missing); err == nil {
		t.Error("load with a missing config file did not fail")
	}
}

func TestQuery(t *testing.T) {
	filename := shopConfig(t)

	out, err := execute(t, "query", "sqlite", "shop", "items", "--config-file", filename,
		"--where", "id > 1", "--order", "id", "--desc")
	if err != nil {
		t.Fatalf("query failed with %s", err)
	}
	if !strings.Contains(out, "(2 rows)") || strings.Contains(out, "pen") ||
		strings.Index(out, "pad") > strings.Index(out, "ink") {

		t.Errorf("query got %s", out)
	}

	cases := [][]string{
		{"query", "cobol", "shop", "items"},
		{"query", "sqlite", "store", "items"},
		{"query", "sqlite", "shop", "orders"},
		{"query", "sqlite", "shop"},
	}
	for _, c := range cases {
		if _, err := execute(t, append(c, "--config-file", filename)...); err == nil {
			t.Errorf("%s did not fail", strings.Join(c, " "))
		}
	}
}
