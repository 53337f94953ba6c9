package schema

import (
	"strings"

	"github.com/leftmike/sqlmirror/condition"
	"github.com/leftmike/sqlmirror/sql"
)

const TablePlaceholder = "{table}"

type IndexOptions struct {
	NotExists bool
	Unique    bool
	Clustered bool
	FullText  bool
	Spatial   bool
	Using     string   // mysql index method, BTREE by default
	Includes  []string // non-key columns, postgresql and sqlserver
	Where     string   // partial index condition
}

// IndexColumn is an indexed column with optional modifiers such as DESC or a collation.
type IndexColumn struct {
	Name      string
	Modifiers []string
}

func (ic IndexColumn) String() string {
	if len(ic.Modifiers) == 0 {
		return ic.Name
	}
	return ic.Name + " " + strings.Join(ic.Modifiers, " ")
}

type Index struct {
	name    string
	dialect sql.Dialect
	opts    IndexOptions
	cols    []IndexColumn
}

func NewIndex(name string, d sql.Dialect, opts IndexOptions, cols ...IndexColumn) (*Index,
	error) {

	if err := sql.CheckIdentifier("index", name); err != nil {
		return nil, err
	}
	if opts.FullText && opts.Spatial {
		return nil, sql.Errorf("index %s: use either FULLTEXT or SPATIAL", name)
	}
	if len(cols) == 0 {
		return nil, sql.Errorf("index %s: at least one column is required", name)
	}
	for _, c := range cols {
		if err := sql.CheckIdentifier("column", c.Name); err != nil {
			return nil, err
		}
	}
	for _, c := range opts.Includes {
		if err := sql.CheckIdentifier("column", c); err != nil {
			return nil, err
		}
	}
	if opts.Using == "" {
		opts.Using = "BTREE"
	}
	return &Index{
		name:    name,
		dialect: d,
		opts:    opts,
		cols:    cols,
	}, nil
}

func (idx *Index) Name() string {
	return idx.name
}

func (idx *Index) Columns() []string {
	names := make([]string, 0, len(idx.cols))
	for _, c := range idx.cols {
		names = append(names, c.Name)
	}
	return names
}

func (idx *Index) Unique() bool {
	return idx.opts.Unique
}

// String returns the CREATE INDEX statement with TablePlaceholder in place of the table, or ""
// if the dialect does not have indexes.
func (idx *Index) String() string {
	var s []string
	add := func(ok bool, w string) {
		if ok {
			s = append(s, w)
		}
	}

	cols := make([]string, 0, len(idx.cols))
	for _, c := range idx.cols {
		cols = append(cols, c.String())
	}
	on := "ON " + TablePlaceholder + " (" + strings.Join(cols, ",") + ")"
	where := ""
	if w := strings.TrimSpace(idx.opts.Where); w != "" {
		where = "WHERE " + condition.ChangeWords(w)
	}
	include := ""
	if len(idx.opts.Includes) > 0 {
		include = "INCLUDE (" + strings.Join(idx.opts.Includes, ",") + ")"
	}

	s = append(s, "CREATE")
	add(idx.opts.Unique, "UNIQUE")
	switch idx.dialect {
	case sql.SQLite:
		s = append(s, "INDEX")
		add(idx.opts.NotExists, "IF NOT EXISTS")
		s = append(s, idx.name, on)
		add(where != "", where)
	case sql.MySQL:
		add(idx.opts.FullText, "FULLTEXT")
		add(idx.opts.Spatial, "SPATIAL")
		s = append(s, "INDEX", idx.name, on)
		add(!idx.opts.FullText && !idx.opts.Spatial, "USING "+strings.ToUpper(idx.opts.Using))
	case sql.PostgreSQL:
		s = append(s, "INDEX")
		add(idx.opts.NotExists, "IF NOT EXISTS")
		s = append(s, idx.name, on)
		add(include != "", include)
		add(where != "", where)
	case sql.SQLServer:
		add(idx.opts.Clustered, "CLUSTERED")
		s = append(s, "INDEX", idx.name, on)
		add(include != "", include)
		add(where != "", where)
	default:
		return ""
	}
	return strings.Join(s, " ")
}

// Render returns the CREATE INDEX statement for table.
func (idx *Index) Render(table string) string {
	return strings.ReplaceAll(idx.String(), TablePlaceholder, table)
}
