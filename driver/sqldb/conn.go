// Package sqldb implements the commands that are common to all database/sql dialects. The
// dialect packages embed a Conn and override the commands they spell differently.
package sqldb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/driver"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type Config struct {
	Dialect     sql.Dialect
	DriverName  string
	DSN         string
	AutoCommit  bool
	MaxAttempts int

	// Quote quotes an identifier; if nil, identifiers are used as is.
	Quote func(id string) string
}

var _ driver.Driver = (*Conn)(nil)

type Conn struct {
	cfg     Config
	db      *sqlx.DB
	tx      *sqlx.Tx
	retrier driver.Retrier
}

func Open(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = driver.DefaultMaxAttempts
	}
	c := &Conn{cfg: cfg}
	c.retrier = driver.Retrier{
		Max:    cfg.MaxAttempts,
		Reopen: c.reopen,
	}

	err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// New wraps an already open database; it is not reopened when the connection goes away.
func New(db *sqlx.DB, cfg Config) *Conn {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = driver.DefaultMaxAttempts
	}
	return &Conn{
		cfg: cfg,
		db:  db,
		retrier: driver.Retrier{
			Max: cfg.MaxAttempts,
		},
	}
}

func (c *Conn) connect(ctx context.Context) error {
	db, err := sqlx.Open(c.cfg.DriverName, c.cfg.DSN)
	if err != nil {
		return fmt.Errorf("sqldb: open %s: %w", c.cfg.Dialect, err)
	}
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("sqldb: connect %s: %w", c.cfg.Dialect, err)
	}
	c.db = db
	return nil
}

func (c *Conn) reopen(ctx context.Context) error {
	c.tx = nil
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	return c.connect(ctx)
}

func (c *Conn) Dialect() sql.Dialect {
	return c.cfg.Dialect
}

func (c *Conn) DB() *sqlx.DB {
	return c.db
}

func (c *Conn) Close() error {
	if c.tx != nil {
		c.tx.Rollback()
		c.tx = nil
	}
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Conn) Quote(id string) string {
	if c.cfg.Quote == nil {
		return id
	}
	return c.cfg.Quote(id)
}

func (c *Conn) quoteList(ids []string) string {
	q := make([]string, 0, len(ids))
	for _, id := range ids {
		q = append(q, c.Quote(id))
	}
	return strings.Join(q, ", ")
}

func (c *Conn) ext(ctx context.Context) (sqlx.ExtContext, error) {
	if c.db == nil {
		return nil, fmt.Errorf("sqldb: %s: connection is closed", c.cfg.Dialect)
	}
	if c.cfg.AutoCommit {
		return c.db, nil
	}
	if c.tx == nil {
		tx, err := c.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}
	return c.tx, nil
}

func (c *Conn) logger(cmd driver.Command) *log.Entry {
	return log.WithFields(log.Fields{
		"dialect": c.cfg.Dialect,
		"command": cmd,
	})
}

// Statement returns q with its ? placeholders spelled the way the driver expects them,
// followed by clauses. The clauses carry their literals inline and are never rebound, so a ?
// inside a quoted string stays as it is.
func (c *Conn) Statement(q, clauses string) string {
	q = sqlx.Rebind(sqlx.BindType(c.cfg.DriverName), q)
	if clauses != "" {
		q += " " + clauses
	}
	return q
}

// Query runs q and returns its rows as a frame indexed from zero. The rows are closed before
// Query returns.
func (c *Conn) Query(ctx context.Context, cmd driver.Command, q string,
	args ...interface{}) (*frame.Frame, error) {

	return c.query(ctx, cmd, c.Statement(q, ""), args)
}

func (c *Conn) query(ctx context.Context, cmd driver.Command, stmt string,
	args []interface{}) (*frame.Frame, error) {

	var f *frame.Frame
	err := c.retrier.Do(ctx, cmd,
		func(ctx context.Context) error {
			ext, err := c.ext(ctx)
			if err != nil {
				return err
			}
			c.logger(cmd).Debug(stmt)

			rows, err := ext.QueryxContext(ctx, stmt, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			f, err = scanFrame(rows)
			return err
		})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Exec runs q and returns the number of rows affected, or zero if the driver does not report
// it.
func (c *Conn) Exec(ctx context.Context, cmd driver.Command, q string,
	args ...interface{}) (int64, error) {

	return c.exec(ctx, cmd, c.Statement(q, ""), args)
}

func (c *Conn) exec(ctx context.Context, cmd driver.Command, stmt string,
	args []interface{}) (int64, error) {

	var cnt int64
	err := c.retrier.Do(ctx, cmd,
		func(ctx context.Context) error {
			ext, err := c.ext(ctx)
			if err != nil {
				return err
			}
			c.logger(cmd).Debug(stmt)

			res, err := ext.ExecContext(ctx, stmt, args...)
			if err != nil {
				return err
			}
			cnt, err = res.RowsAffected()
			if err != nil {
				cnt = 0
			}
			return nil
		})
	return cnt, err
}

// Strings runs q and returns the first column of each row as text.
func (c *Conn) Strings(ctx context.Context, cmd driver.Command, q string,
	args ...interface{}) ([]string, error) {

	f, err := c.Query(ctx, cmd, q, args...)
	if err != nil {
		return nil, err
	}
	if len(f.Columns) == 0 {
		return nil, nil
	}
	strs := make([]string, 0, f.Len())
	for _, r := range f.Rows {
		strs = append(strs, sql.Text(r.Values[0]))
	}
	return strs, nil
}

func scanFrame(rows *sqlx.Rows) (*frame.Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cts))
	for cdx, ct := range cts {
		types[cdx] = strings.ToUpper(ct.DatabaseTypeName())
	}

	f := frame.New(cols)
	var idx int64
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		row := make([]sql.Value, len(vals))
		for vdx, v := range vals {
			row[vdx], err = scanValue(v, types[vdx])
			if err != nil {
				return nil, err
			}
		}
		f.Append(idx, row)
		idx += 1
	}
	return f, rows.Err()
}

func isType(typ string, names ...string) bool {
	for _, n := range names {
		if strings.Contains(typ, n) {
			return true
		}
	}
	return false
}

// scanValue converts v, as scanned from a column of type typ, to a Value. Text protocols
// return every column as bytes; the type name decides how to decode them.
func scanValue(v interface{}, typ string) (sql.Value, error) {
	var s string
	switch v := v.(type) {
	case []byte:
		if isType(typ, "BLOB", "BINARY", "BYTEA") {
			return sql.BytesValue(append([]byte(nil), v...)), nil
		}
		s = string(v)
	case string:
		s = v
	default:
		return sql.ValueOf(v)
	}

	switch {
	case isType(typ, "JSON"):
		return sql.JSONValue(s), nil
	case isType(typ, "DECIMAL", "NUMERIC", "MONEY"):
		d, err := decimal.NewFromString(s)
		if err == nil {
			return sql.ValueOf(d)
		}
	case isType(typ, "INT", "SERIAL"):
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return sql.Int64Value(i), nil
		}
	case isType(typ, "FLOAT", "DOUBLE", "REAL"):
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return sql.Float64Value(f), nil
		}
	case typ == "BOOL" || typ == "BOOLEAN":
		b, err := strconv.ParseBool(s)
		if err == nil {
			return sql.BoolValue(b), nil
		}
	}
	return sql.StringValue(s), nil
}

// Args converts values to the arguments of a statement; Absent becomes NULL.
func Args(vals []sql.Value) []interface{} {
	args := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		args = append(args, sql.Native(v))
	}
	return args
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
