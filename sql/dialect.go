package sql

import (
	"strings"
)

type Dialect int

const (
	NoDialect Dialect = iota
	SQLite
	MySQL
	PostgreSQL
	SQLServer
	Oracle
	Access
	Excel
	GoogleSheet
	OneC
)

var dialects = map[Dialect]string{
	SQLite:      "sqlite",
	MySQL:       "mysql",
	PostgreSQL:  "postgresql",
	SQLServer:   "sqlserver",
	Oracle:      "oracle",
	Access:      "access",
	Excel:       "excel",
	GoogleSheet: "googlesheet",
	OneC:        "1c",
}

func (d Dialect) String() string {
	if s, ok := dialects[d]; ok {
		return s
	}
	return "unknown"
}

func LookupDialect(s string) (Dialect, bool) {
	s = strings.ToLower(strings.TrimPrefix(s, "_"))
	if s == "postgres" {
		return PostgreSQL, true
	}
	for d, n := range dialects {
		if n == s {
			return d, true
		}
	}
	return NoDialect, false
}

// Routines is true if the dialect has stored procedures, functions, and triggers.
func (d Dialect) Routines() bool {
	return d == MySQL || d == PostgreSQL || d == SQLServer
}
