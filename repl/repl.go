// Package repl is a console for looking at mirrored databases and the rows of their tables.
package repl

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/mirror"
	"github.com/leftmike/sqlmirror/sql"
)

// Mirrors are the databases the console works on; loader.Reader is one.
type Mirrors interface {
	Methods() []sql.Dialect
	Database(method sql.Dialect) *mirror.Database
	Reload(ctx context.Context, method sql.Dialect) error
}

type LineReader interface {
	// ReadLine returns io.EOF when there are no more lines.
	ReadLine() (string, error)
}

const help = `commands:
  methods                          list the loaded methods
  databases                        list the databases of the current method
  use [<method>] <database>        switch to a database
  tables                           list the tables and their row counts
  columns <table>                  show the columns of a table, as reported by the database
  count <table>                    count the rows of a table
  get <table> [<column>,...] [order <column> [desc]] [limit <n>] [where <expression>]
  fetch ...                        like get, but reads from the database
  reload                           read the databases of the current method again
  quit`

type Repl struct {
	m      Mirrors
	w      io.Writer
	method sql.Dialect
	tbls   *mirror.Tables
}

// New starts with the first database of the first method, if there is one.
func New(m Mirrors, w io.Writer) *Repl {
	rp := &Repl{
		m: m,
		w: w,
	}
	for _, method := range m.Methods() {
		db := m.Database(method)
		if db == nil {
			continue
		}
		if names := db.Names(); len(names) > 0 {
			rp.method = method
			rp.tbls = db.Get(names[0])
			break
		}
	}
	return rp
}

// Current returns the method and the database in use; the database may be nil.
func (rp *Repl) Current() (sql.Dialect, *mirror.Tables) {
	return rp.method, rp.tbls
}

func (rp *Repl) prompt() string {
	if rp.tbls == nil {
		return "sqlmirror: "
	}
	return fmt.Sprintf("%s.%s: ", rp.method, rp.tbls.Name())
}

// Run executes lines from lr until it is exhausted or a quit command.
func (rp *Repl) Run(ctx context.Context, lr LineReader) {
	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			return
		} else if err != nil {
			fmt.Fprintln(rp.w, err)
			return
		}

		done, err := rp.Exec(ctx, line)
		if err != nil {
			fmt.Fprintln(rp.w, err)
		}
		if done {
			return
		}
	}
}

var whereSplit = regexp.MustCompile(`(?i)\s+where\s+`)

// Exec runs one command; done is true for quit.
func (rp *Repl) Exec(ctx context.Context, line string) (bool, error) {
	var expr string
	if loc := whereSplit.FindStringIndex(line); loc != nil {
		expr = strings.TrimSpace(line[loc[1]:])
		line = line[:loc[0]]
	}
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}

	cmd := strings.ToLower(args[0])
	args = args[1:]
	if expr != "" && cmd != "get" && cmd != "fetch" {
		return false, sql.Errorf("%s: unexpected where", cmd)
	}
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(rp.w, help)
	case "methods":
		for _, m := range rp.m.Methods() {
			if m == rp.method {
				fmt.Fprintf(rp.w, "%s *\n", m)
			} else {
				fmt.Fprintln(rp.w, m)
			}
		}
	case "databases":
		db := rp.m.Database(rp.method)
		if db == nil {
			return false, sql.Errorf("no method in use")
		}
		for _, n := range db.Names() {
			fmt.Fprintln(rp.w, n)
		}
	case "use":
		return false, rp.use(args)
	case "tables":
		tbls, err := rp.current()
		if err != nil {
			return false, err
		}
		f := frame.New([]string{"table", "columns", "rows"})
		for idx, tbl := range tbls.All() {
			f.Append(int64(idx), []sql.Value{
				sql.StringValue(tbl.Name()),
				sql.Int64Value(len(tbl.Columns())),
				sql.Int64Value(tbl.Count()),
			})
		}
		PrintFrame(rp.w, f)
	case "columns":
		tbl, err := rp.table(args)
		if err != nil {
			return false, err
		}
		return false, rp.columns(ctx, tbl)
	case "count":
		tbl, err := rp.table(args)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(rp.w, tbl.Count())
	case "get", "fetch":
		tbl, err := rp.table(args)
		if err != nil {
			return false, err
		}
		q, err := parseQuery(args[1:])
		if err != nil {
			return false, err
		}
		q.Where = expr
		q.SQL = cmd == "fetch"
		f, err := q.Get(ctx, tbl)
		if err != nil {
			return false, err
		}
		PrintFrame(rp.w, f)
	case "reload":
		if rp.tbls == nil {
			return false, sql.Errorf("no database in use")
		}
		return false, rp.m.Reload(ctx, rp.method)
	default:
		return false, sql.Errorf("%s: unknown command; try help", cmd)
	}
	return false, nil
}

func (rp *Repl) use(args []string) error {
	method := rp.method
	switch len(args) {
	case 1:
	case 2:
		d, ok := sql.LookupDialect(args[0])
		if !ok {
			return sql.Errorf("use: unknown method: %s", args[0])
		}
		method = d
		args = args[1:]
	default:
		return sql.Errorf("use: expected [<method>] <database>")
	}

	db := rp.m.Database(method)
	if db == nil {
		return sql.Errorf("use: method %s is not loaded", method)
	}
	tbls := db.Get(args[0])
	if tbls == nil {
		return sql.Errorf("use: database %s not found; databases: %s", args[0],
			strings.Join(db.Names(), ", "))
	}
	rp.method = method
	rp.tbls = tbls
	return nil
}

func (rp *Repl) current() (*mirror.Tables, error) {
	if rp.tbls == nil {
		return nil, sql.Errorf("no database in use")
	}
	return rp.tbls, nil
}

func (rp *Repl) table(args []string) (*mirror.Table, error) {
	tbls, err := rp.current()
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, sql.Errorf("expected a table")
	}
	tbl := tbls.Table(args[0])
	if tbl == nil {
		return nil, sql.Errorf("table %s not found; tables: %s", args[0],
			strings.Join(tbls.Names(), ", "))
	}
	return tbl, nil
}

func (rp *Repl) columns(ctx context.Context, tbl *mirror.Table) error {
	flds, err := tbl.Types(ctx)
	if err != nil {
		return err
	}
	f := frame.New([]string{"column", "type", "required", "default", "primary"})
	for idx, col := range tbl.Columns() {
		fld, ok := flds[col]
		if !ok {
			continue
		}
		f.Append(int64(idx), []sql.Value{
			sql.StringValue(col),
			sql.StringValue(fld.Type),
			sql.BoolValue(fld.Required),
			fld.Default,
			sql.BoolValue(fld.Primary),
		})
	}
	PrintFrame(rp.w, f)
	return nil
}

func parseQuery(args []string) (Query, error) {
	var q Query
	for len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "order":
			if len(args) < 2 {
				return q, sql.Errorf("order: expected a column")
			}
			q.Order = args[1]
			args = args[2:]
			if len(args) > 0 && strings.ToLower(args[0]) == "desc" {
				q.Desc = true
				args = args[1:]
			}
		case "limit":
			if len(args) < 2 {
				return q, sql.Errorf("limit: expected a number")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return q, sql.Errorf("limit: expected a positive number: %s", args[1])
			}
			q.Limit = n
			args = args[2:]
		default:
			if q.Columns != nil {
				return q, sql.Errorf("get: unexpected %s", args[0])
			}
			q.Columns = strings.Split(args[0], ",")
			args = args[1:]
		}
	}
	return q, nil
}
