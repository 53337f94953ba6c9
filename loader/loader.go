// Package loader opens the configured sources and reads each of their databases into a mirror.
package loader

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/config"
	"github.com/leftmike/sqlmirror/driver"
	_ "github.com/leftmike/sqlmirror/driver/mysql"
	_ "github.com/leftmike/sqlmirror/driver/postgres"
	_ "github.com/leftmike/sqlmirror/driver/sqlite"
	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/mirror"
	"github.com/leftmike/sqlmirror/sql"
)

// Reader holds the mirrored databases of every configured method.
type Reader struct {
	cfg     *config.Config
	mutex   sync.Mutex
	methods []sql.Dialect
	dbs     map[sql.Dialect]*mirror.Database
}

// Load opens every source in cfg and mirrors its database. With cfg.Threads, the sources of
// each method are loaded by their own goroutine.
func Load(ctx context.Context, cfg *config.Config) (*Reader, error) {
	methods := cfg.Methods()
	for _, m := range methods {
		if !driver.Registered(m) {
			return nil, sql.Errorf("%s: no driver for this method", m)
		}
	}

	r := &Reader{
		cfg:     cfg,
		methods: methods,
		dbs:     map[sql.Dialect]*mirror.Database{},
	}
	var err error
	if cfg.Threads {
		g, gctx := errgroup.WithContext(ctx)
		for _, m := range methods {
			m := m
			g.Go(func() error {
				return r.loadMethod(gctx, m)
			})
		}
		err = g.Wait()
	} else {
		for _, m := range methods {
			err = r.loadMethod(ctx, m)
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) loadMethod(ctx context.Context, m sql.Dialect) error {
	db := mirror.NewDatabase(m)
	r.mutex.Lock()
	r.dbs[m] = db
	r.mutex.Unlock()

	for _, src := range r.cfg.Sources {
		if src.Dialect() != m {
			continue
		}
		tbls, err := r.loadSource(ctx, src)
		if err != nil {
			return fmt.Errorf("loader: source %s: %w", src.Label, err)
		}
		err = db.Add(tbls)
		if err != nil {
			tbls.Close()
			return err
		}
	}
	return nil
}

func (r *Reader) loadSource(ctx context.Context, src config.Source) (*mirror.Tables, error) {
	maxAttempts := src.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = driver.DefaultMaxAttempts
	}
	drv, err := driver.Open(ctx, src.Dialect(), src.DSN,
		driver.Options{
			AutoCommit:  src.AutoCommitted(),
			MaxAttempts: maxAttempts,
			Schema:      src.Schema,
		})
	if err != nil {
		return nil, err
	}

	snap, err := Snapshot(ctx, drv, r.cfg.Limit)
	if err != nil {
		drv.Close()
		return nil, err
	}

	var tbls *mirror.Tables
	var upgrade mirror.UpgradeFunc
	if r.cfg.Reload {
		upgrade = func(ctx context.Context) error {
			return r.refresh(ctx, tbls)
		}
	}
	tbls, err = mirror.NewTables(ctx, src.Name, drv, snap, upgrade)
	if err != nil {
		drv.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"method":   src.Dialect(),
		"database": src.Name,
		"tables":   len(snap.Tables),
	}).Info("loader: loaded")
	return tbls, nil
}

// Snapshot reads every table of the database behind drv, at most limit rows of each when
// limit is positive.
func Snapshot(ctx context.Context, drv driver.Driver, limit int) (mirror.Snapshot, error) {
	tables, err := drv.ShowTables(ctx)
	if err != nil {
		return mirror.Snapshot{}, err
	}

	var clauses string
	if limit > 0 {
		clauses = condition.NewLimitOffset(limit, 0).String()
	}
	snap := mirror.Snapshot{
		Tables: tables,
		Frames: map[string]*frame.Frame{},
	}
	for _, tn := range tables {
		cols, err := drv.ShowColumns(ctx, tn)
		if err != nil {
			return mirror.Snapshot{}, err
		}
		f, err := drv.Select(ctx, tn, cols, false, clauses)
		if err != nil {
			return mirror.Snapshot{}, err
		}
		if limit > 0 && f.Len() > limit {
			f = f.Slice(0, limit)
		}
		if f.Len() == 0 {
			f = mirror.Placeholder(cols)
		}
		snap.Frames[tn] = f
	}
	return snap, nil
}

func (r *Reader) refresh(ctx context.Context, tbls *mirror.Tables) error {
	snap, err := Snapshot(ctx, tbls.Driver(), r.cfg.Limit)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"method":   tbls.Driver().Dialect(),
		"database": tbls.Name(),
	}).Info("loader: reload")
	return tbls.Refresh(ctx, snap)
}

// Reload reads every database of method again and refreshes its mirror in place.
func (r *Reader) Reload(ctx context.Context, method sql.Dialect) error {
	db := r.Database(method)
	if db == nil {
		return sql.Errorf("%s: method not loaded", method)
	}
	for _, n := range db.Names() {
		if err := r.refresh(ctx, db.Get(n)); err != nil {
			return err
		}
	}
	return nil
}

// Methods returns the loaded methods in the order they appear in the config.
func (r *Reader) Methods() []sql.Dialect {
	return append([]sql.Dialect(nil), r.methods...)
}

// Database returns the databases of method or nil.
func (r *Reader) Database(method sql.Dialect) *mirror.Database {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.dbs[method]
}

// Tables returns the named database of method or nil.
func (r *Reader) Tables(method sql.Dialect, name string) *mirror.Tables {
	db := r.Database(method)
	if db == nil {
		return nil
	}
	return db.Get(name)
}

func (r *Reader) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var err error
	for _, m := range r.methods {
		db, ok := r.dbs[m]
		if !ok {
			continue
		}
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(r.dbs, m)
	}
	return err
}
