// Package config describes the databases to mirror and how to load them. It is read from an
// hcl file such as:
//
//	threads = true
//	limit = 1000
//	log_level = "info"
//
//	source "shop" {
//		method = "mysql"
//		dsn = "user:pass@tcp(localhost:3306)/shop"
//		max_attempts = 3
//	}
//
//	source "cache" {
//		method = "sqlite"
//		dsn = "/var/lib/cache.db"
//	}
package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/sqlmirror/sql"
)

// Source is one database to mirror. Label names the source block; Name, the name of the
// mirrored database, defaults to it.
type Source struct {
	Label       string `hcl:",key"`
	Method      string `hcl:"method"`
	DSN         string `hcl:"dsn"`
	Name        string `hcl:"name"`
	Schema      string `hcl:"schema"`
	MaxAttempts int    `hcl:"max_attempts"`
	AutoCommit  *bool  `hcl:"auto_commit"`

	dialect sql.Dialect
}

// Dialect is valid once the config has been checked.
func (src Source) Dialect() sql.Dialect {
	return src.dialect
}

// AutoCommitted is true unless auto_commit = false was given.
func (src Source) AutoCommitted() bool {
	return src.AutoCommit == nil || *src.AutoCommit
}

type Config struct {
	Sources  []Source `hcl:"source"`
	Threads  bool     `hcl:"threads"`
	Limit    int      `hcl:"limit"`
	LogLevel string   `hcl:"log_level"`
	LogFile  string   `hcl:"log_file"`
	Reload   bool     `hcl:"reload"`
}

var variables = map[string]struct{}{
	"source":    {},
	"threads":   {},
	"limit":     {},
	"log_level": {},
	"log_file":  {},
	"reload":    {},
}

// Check validates the config and fills in defaults. Every problem is a QueryError.
func (cfg *Config) Check() error {
	if cfg.Limit < 0 {
		return sql.Errorf("limit must not be negative: %d", cfg.Limit)
	}
	if cfg.LogLevel != "" {
		if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
			return sql.Errorf("log_level: %s", err)
		}
	}

	names := map[string]struct{}{}
	for sdx := range cfg.Sources {
		src := &cfg.Sources[sdx]
		if src.Label == "" {
			return sql.Errorf("source %d: missing label", sdx+1)
		}
		d, ok := sql.LookupDialect(src.Method)
		if !ok {
			return sql.Errorf("source %s: unknown method: %q", src.Label, src.Method)
		}
		src.dialect = d
		if src.DSN == "" {
			return sql.Errorf("source %s: missing dsn", src.Label)
		}
		if src.Name == "" {
			src.Name = src.Label
		}
		if err := sql.CheckIdentifier("database", src.Name); err != nil {
			return sql.Errorf("source %s: %s", src.Label, err)
		}
		if src.MaxAttempts < 0 {
			return sql.Errorf("source %s: max_attempts must not be negative", src.Label)
		}

		key := fmt.Sprintf("%s.%s", d, src.Name)
		if _, dup := names[key]; dup {
			return sql.Errorf("source %s: database %s already configured for %s", src.Label,
				src.Name, d)
		}
		names[key] = struct{}{}
	}
	return nil
}

// Source returns the source with label.
func (cfg *Config) Source(label string) (Source, bool) {
	for _, src := range cfg.Sources {
		if src.Label == label {
			return src, true
		}
	}
	return Source{}, false
}

// Methods returns the dialects of the sources, each once, in the order they first appear.
func (cfg *Config) Methods() []sql.Dialect {
	var methods []sql.Dialect
	seen := map[sql.Dialect]struct{}{}
	for _, src := range cfg.Sources {
		if _, ok := seen[src.dialect]; ok {
			continue
		}
		seen[src.dialect] = struct{}{}
		methods = append(methods, src.dialect)
	}
	return methods
}
