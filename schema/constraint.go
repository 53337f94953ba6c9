package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/leftmike/sqlmirror/sql"
)

func (dt DataTypes) Null(null bool) string {
	if null {
		return "NULL"
	}
	return "NOT NULL"
}

// wrap returns kw(s), or kw s for the dialects that do not accept the parenthesized form.
func (dt DataTypes) wrap(kw, s string) string {
	if dt.is(sql.MySQL, sql.SQLServer, sql.PostgreSQL) {
		return kw + " " + s
	}
	return kw + "(" + s + ")"
}

// Default returns the DEFAULT constraint for v; v may be any value accepted by sql.ValueOf.
// Values of other types default to NULL.
func (dt DataTypes) Default(v interface{}) string {
	sv, err := sql.ValueOf(v)
	if err != nil {
		sv = nil
	}
	var lit string
	switch sv := sv.(type) {
	case sql.BoolValue:
		if sv {
			lit = "1"
		} else {
			lit = "0"
		}
	default:
		lit = sql.Literal(sv)
	}
	return dt.wrap("DEFAULT", lit)
}

func (dt DataTypes) Primary() string {
	return "PRIMARY KEY"
}

func (dt DataTypes) Unique() string {
	return "UNIQUE"
}

func (dt DataTypes) Auto() string {
	switch dt.Dialect {
	case sql.SQLite:
		return "AUTOINCREMENT"
	case sql.MySQL:
		return "AUTO_INCREMENT"
	case sql.SQLServer:
		return "IDENTITY(1,1)"
	}
	return ""
}

func (dt DataTypes) Comment(s string) string {
	switch dt.Dialect {
	case sql.MySQL, sql.SQLServer:
		return "COMMENT " + sql.QuoteString(s)
	case sql.SQLite, sql.PostgreSQL:
		return ""
	}
	return "COMMENT(" + sql.QuoteString(s) + ")"
}

// Check returns CHECK(column op v).
func (dt DataTypes) Check(column, op string, v interface{}) (string, error) {
	if err := sql.CheckIdentifier("column", column); err != nil {
		return "", err
	}
	sv, err := sql.ValueOf(v)
	if err != nil {
		return "", sql.Errorf("check: %s", err)
	}
	if b, ok := sv.(sql.BoolValue); ok {
		if b {
			sv = sql.Int64Value(1)
		} else {
			sv = sql.Int64Value(0)
		}
	}
	return fmt.Sprintf("CHECK(%s %s %s)", column, strings.TrimSpace(op), sql.Literal(sv)), nil
}

var sqliteCollations = []string{"BINARY", "NOCASE", "RTRIM"}

// Collate returns the COLLATE clause for name; an empty name is BINARY on sqlite.
func (dt DataTypes) Collate(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch dt.Dialect {
	case sql.SQLite:
		if name == "" {
			return "COLLATE BINARY", nil
		}
		for _, c := range sqliteCollations {
			if strings.EqualFold(c, name) {
				return "COLLATE " + c, nil
			}
		}
		return "", sql.Errorf("collate: sqlite does not have collation %s", name)
	case sql.MySQL:
		if name == "" {
			return "", nil
		}
		if Collation(name) == "" {
			return "", sql.Errorf("collate: unknown collation %s", name)
		}
		return "COLLATE " + name, nil
	case sql.PostgreSQL:
		if name == "" {
			return "", nil
		}
		return `COLLATE "` + name + `"`, nil
	}
	return "", nil
}

var mysqlEngines = []string{"InnoDB", "MyISAM", "MEMORY", "CSV", "ARCHIVE", "BLACKHOLE",
	"NDB", "MERGE", "FEDERATED", "EXAMPLE"}

// Engine returns the ENGINE table option for mysql; unknown engines are InnoDB.
func (dt DataTypes) Engine(name string) string {
	if !dt.is(sql.MySQL) {
		return ""
	}
	for _, e := range mysqlEngines {
		if strings.EqualFold(e, name) {
			return "ENGINE = " + e
		}
	}
	return "ENGINE = InnoDB"
}

// TriggerReturn is the return type of a trigger function.
func (dt DataTypes) TriggerReturn() string {
	if dt.is(sql.PostgreSQL) {
		return "trigger"
	}
	return ""
}

// Reference is a table that a foreign key can be declared on or refer to.
type Reference interface {
	Name() string
	HasColumn(col string) bool
	PrimaryKeys(ctx context.Context) ([]string, error)
}

// Foreign returns the foreign key constraint on column of table referring to the primary key
// of refs. On mysql and sqlserver it is a table constraint, optionally named; on sqlite and
// postgresql it is a column constraint. table may be nil when the column is being declared.
func (dt DataTypes) Foreign(ctx context.Context, table Reference, column string,
	refs Reference, name string) (string, error) {

	if !dt.is(sql.MySQL, sql.SQLServer, sql.SQLite, sql.PostgreSQL) {
		return "", nil
	}
	name = strings.TrimSpace(name)
	if name != "" {
		if err := sql.CheckIdentifier("foreign key", name); err != nil {
			return "", err
		}
	}
	if err := sql.CheckIdentifier("column", column); err != nil {
		return "", err
	}
	if table != nil && !table.HasColumn(column) {
		return "", sql.Errorf("foreign key: column %s not found in table %s", column,
			table.Name())
	}
	if refs == nil {
		return "", sql.Errorf("foreign key: referenced table not found")
	}
	pks, err := refs.PrimaryKeys(ctx)
	if err != nil {
		return "", err
	}
	if len(pks) == 0 {
		return "", sql.Errorf("foreign key: table %s is missing a primary key", refs.Name())
	}

	ref := fmt.Sprintf("REFERENCES %s (%s)", refs.Name(), pks[0])
	if dt.is(sql.SQLite, sql.PostgreSQL) {
		return ref, nil
	}
	fk := fmt.Sprintf("FOREIGN KEY (%s) %s", column, ref)
	if name != "" {
		return "CONSTRAINT " + name + " " + fk, nil
	}
	return fk, nil
}
