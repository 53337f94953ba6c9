package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leftmike/sqlmirror/config"
	"github.com/leftmike/sqlmirror/loader"
	"github.com/leftmike/sqlmirror/repl"
	"github.com/leftmike/sqlmirror/sql"
)

var (
	queryCmd = &cobra.Command{
		Use:   "query <method> <database> <table>",
		Short: "Print the rows of a mirrored table",
		Args:  cobra.ExactArgs(3),
		RunE:  queryRun,
	}

	query repl.Query
)

func init() {
	fs := queryCmd.Flags()
	fs.StringVarP(&query.Where, "where", "w", "",
		"only rows matching `expression`, which starts with the column it filters")
	fs.StringVar(&query.Order, "order", "", "order the rows by `column`")
	fs.BoolVar(&query.Desc, "desc", false, "order descending")
	fs.IntVar(&query.Limit, "rows", 0, "print at most `n` rows")
	fs.StringSliceVar(&query.Columns, "columns", nil, "print only these `columns`")
	fs.BoolVar(&query.SQL, "sql", false, "read the rows from the database")

	sqlmirrorCmd.AddCommand(queryCmd)
}

func queryRun(cmd *cobra.Command, args []string) error {
	method, ok := sql.LookupDialect(args[0])
	if !ok {
		return sql.Errorf("unknown method: %s", args[0])
	}
	c, err := settings()
	if err != nil {
		return err
	}

	var sources []config.Source
	for _, src := range c.Sources {
		if src.Dialect() == method && src.Name == args[1] {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		return sql.Errorf("%s: database %s is not configured", method, args[1])
	}
	c.Sources = sources

	ctx, cancel := signalContext()
	defer cancel()

	r, err := loader.Load(ctx, c)
	if err != nil {
		return err
	}
	defer r.Close()

	tbl := r.Tables(method, args[1]).Table(args[2])
	if tbl == nil {
		return sql.Errorf("%s.%s: table %s not found", method, args[1], args[2])
	}
	f, err := query.Get(ctx, tbl)
	if err != nil {
		return err
	}
	repl.PrintFrame(cmd.OutOrStdout(), f)
	return nil
}
