package driver

import (
	"context"
	"fmt"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/sql"
)

type Command int

const (
	VersionCommand Command = iota + 1
	SelectCommand
	InsertCommand
	UpdateCommand
	DeleteCommand
	DropCommand
	CreateCommand
	ShowTablesCommand
	ShowColumnsCommand
	FieldsCommand
	CreateIndexCommand
	DropIndexCommand
	ShowIndexCommand
	ShowForeignCommand
	CreateForeignCommand
	RenameTableCommand
	AddColumnCommand
	AlterColumnCommand
	DropColumnCommand
	RenameColumnCommand
	ShowProcedureCommand
	CreateProcedureCommand
	RunProcedureCommand
	DropProcedureCommand
	ShowFunctionCommand
	CreateFunctionCommand
	RunFunctionCommand
	DropFunctionCommand
	ShowTriggerCommand
	CreateTriggerCommand
	DropTriggerCommand
	CommitCommand
	RollbackCommand
)

var commands = map[Command]string{
	VersionCommand:         "VERSION",
	SelectCommand:          "SELECT",
	InsertCommand:          "INSERT",
	UpdateCommand:          "UPDATE",
	DeleteCommand:          "DELETE",
	DropCommand:            "DROP",
	CreateCommand:          "CREATE",
	ShowTablesCommand:      "SHOW_TABLE",
	ShowColumnsCommand:     "SHOW_COLUMNS",
	FieldsCommand:          "FIELDS",
	CreateIndexCommand:     "CREATE_INDEX",
	DropIndexCommand:       "DROP_INDEX",
	ShowIndexCommand:       "SHOW_INDEX",
	ShowForeignCommand:     "SHOW_FOREIGN",
	CreateForeignCommand:   "CREATE_FOREIGN",
	RenameTableCommand:     "RENAME_TABLE",
	AddColumnCommand:       "ADD_COLUMN",
	AlterColumnCommand:     "ALTER_COLUMN",
	DropColumnCommand:      "DROP_COLUMN",
	RenameColumnCommand:    "RENAME_COLUMN",
	ShowProcedureCommand:   "SHOW_PROCEDURE",
	CreateProcedureCommand: "CREATE_PROCEDURE",
	RunProcedureCommand:    "RUN_PROCEDURE",
	DropProcedureCommand:   "DROP_PROCEDURE",
	ShowFunctionCommand:    "SHOW_FUNCTION",
	CreateFunctionCommand:  "CREATE_FUNCTION",
	RunFunctionCommand:     "RUN_FUNCTION",
	DropFunctionCommand:    "DROP_FUNCTION",
	ShowTriggerCommand:     "SHOW_TRIGGER",
	CreateTriggerCommand:   "CREATE_TRIGGER",
	DropTriggerCommand:     "DROP_TRIGGER",
	CommitCommand:          "COMMIT",
	RollbackCommand:        "ROLLBACK",
}

func (cmd Command) String() string {
	if s, ok := commands[cmd]; ok {
		return s
	}
	return fmt.Sprintf("COMMAND(%d)", int(cmd))
}

// Field describes one column of a table, normalized across dialects. Ordinal starts at 1;
// Default is the raw default expression, or nil if the column has none.
type Field struct {
	Ordinal int
	Name    string
	Type    string
	NotNull bool
	Default *string
	Primary bool
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
	Using   string
}

type Foreign struct {
	Name     string
	Table    string // referenced table
	From     string
	To       string
	OnUpdate string
	OnDelete string
}

type Param struct {
	Name string
	Mode string // IN, OUT, or INOUT; empty for functions
	Type string
}

// Routine is a stored procedure or function. Returns is empty for procedures.
type Routine struct {
	Name    string
	Params  []Param
	Returns string
	Body    string
	Definer string // mysql only
}

type Trigger struct {
	Name    string
	Table   string
	Timing  string // BEFORE or AFTER
	Event   string // INSERT, UPDATE, or DELETE
	Body    string
	Definer string // mysql only
}

// Driver is a connection to one database. Every command takes the table and column names
// already validated; clauses is the SQL text of a condition and may be empty.
type Driver interface {
	Dialect() sql.Dialect
	Close() error
	// Quote returns id quoted as an identifier for the dialect.
	Quote(id string) string

	Version(ctx context.Context) (string, error)

	Select(ctx context.Context, table string, cols []string, distinct bool,
		clauses string) (*frame.Frame, error)
	Insert(ctx context.Context, table string, cols []string, rows [][]sql.Value) (int64, error)
	Update(ctx context.Context, table string, cols []string, vals []sql.Value,
		clauses string) (int64, error)
	Delete(ctx context.Context, table string, clauses string) (int64, error)

	Create(ctx context.Context, table string, defs []string, ifNotExists bool,
		options string) error
	Drop(ctx context.Context, table string, ifExists bool) error
	RenameTable(ctx context.Context, table, name string) error
	ShowTables(ctx context.Context) ([]string, error)
	ShowColumns(ctx context.Context, table string) ([]string, error)
	Fields(ctx context.Context, table string) ([]Field, error)

	AddColumn(ctx context.Context, table, col, def string) error
	AlterColumn(ctx context.Context, table, col, def string) error
	DropColumn(ctx context.Context, table, col string) error
	RenameColumn(ctx context.Context, table, col, name string) error

	// CreateIndex runs stmt, a complete CREATE INDEX statement.
	CreateIndex(ctx context.Context, stmt string) error
	DropIndex(ctx context.Context, table, name string) error
	ShowIndex(ctx context.Context, table string) ([]Index, error)
	ShowForeign(ctx context.Context, table string) ([]Foreign, error)
	// CreateForeign adds constraint on col, as returned by schema.DataTypes.Foreign, to table.
	CreateForeign(ctx context.Context, table, col, constraint string) error

	ShowProcedures(ctx context.Context) ([]Routine, error)
	CreateProcedure(ctx context.Context, r Routine) error
	RunProcedure(ctx context.Context, name string, args []sql.Value) (*frame.Frame, error)
	DropProcedure(ctx context.Context, name string, ifExists bool) error

	ShowFunctions(ctx context.Context) ([]Routine, error)
	CreateFunction(ctx context.Context, r Routine) error
	RunFunction(ctx context.Context, name string, args []sql.Value) (sql.Value, error)
	DropFunction(ctx context.Context, name string, ifExists bool) error

	ShowTriggers(ctx context.Context, table string) ([]Trigger, error)
	CreateTrigger(ctx context.Context, trig Trigger) error
	DropTrigger(ctx context.Context, table, name string, ifExists bool) error

	Commit(ctx context.Context) error
	Rollback() error
}

// Unsupported returns the error for a command that d does not have.
func Unsupported(d sql.Dialect, cmd Command) error {
	return sql.Errorf("%s: %s is not supported", d, cmd)
}
