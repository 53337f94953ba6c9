package driver

import (
	"context"

	"github.com/leftmike/sqlmirror/sql"
)

type Options struct {
	AutoCommit  bool
	MaxAttempts int
	Schema      string // postgresql schema; defaults to public
}

type OpenFunc func(ctx context.Context, dsn string, opts Options) (Driver, error)

var openers = map[sql.Dialect]OpenFunc{}

// Register makes a dialect available to Open; it is called from the init function of each
// dialect package.
func Register(d sql.Dialect, open OpenFunc) {
	if _, dup := openers[d]; dup {
		panic("driver: Register called twice for " + d.String())
	}
	openers[d] = open
}

func Open(ctx context.Context, d sql.Dialect, dsn string, opts Options) (Driver, error) {
	open, ok := openers[d]
	if !ok {
		return nil, sql.Errorf("%s: no driver for this method", d)
	}
	return open(ctx, dsn, opts)
}

func Registered(d sql.Dialect) bool {
	_, ok := openers[d]
	return ok
}
