package driver

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/sql"
)

const DefaultMaxAttempts = 5

// Retrier replays a command after the connection has gone away, reopening it first. At most
// Max reopens are made; the next gone away error is returned as a QueryError.
type Retrier struct {
	Max    int
	Reopen func(ctx context.Context) error
}

// GoneAway is true if err means the connection to the server was lost.
func GoneAway(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == 2006 || me.Number == 2013) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "gone away")
}

func (r Retrier) Do(ctx context.Context, cmd Command, fn func(ctx context.Context) error) error {
	var reopens int
	for {
		err := fn(ctx)
		if !GoneAway(err) {
			return err
		}
		if reopens >= r.Max {
			log.WithFields(log.Fields{
				"command":  cmd,
				"attempts": reopens + 1,
			}).Error("connection lost")
			return sql.Errorf("attempts to reconnect exceeded")
		}

		log.WithFields(log.Fields{
			"command": cmd,
			"attempt": reopens + 1,
		}).Warnf("reconnecting: %s", err)
		if r.Reopen != nil {
			err = r.Reopen(ctx)
			if err != nil {
				return err
			}
		}
		reopens += 1
	}
}
