package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leftmike/sqlmirror/frame"
	"github.com/leftmike/sqlmirror/loader"
	"github.com/leftmike/sqlmirror/repl"
	"github.com/leftmike/sqlmirror/sql"
)

var (
	loadCmd = &cobra.Command{
		Use:   "load",
		Short: "Load every configured source and list the tables mirrored",
		Args:  cobra.NoArgs,
		RunE:  loadRun,
	}
)

func init() {
	sqlmirrorCmd.AddCommand(loadCmd)
}

func loadRun(cmd *cobra.Command, args []string) error {
	c, err := settings()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	r, err := loader.Load(ctx, c)
	if err != nil {
		return err
	}
	defer r.Close()

	f := frame.New([]string{"method", "database", "version", "table", "columns", "rows"})
	var idx int64
	for _, m := range r.Methods() {
		db := r.Database(m)
		for _, n := range db.Names() {
			tbls := db.Get(n)
			for _, tbl := range tbls.All() {
				f.Append(idx, []sql.Value{
					sql.StringValue(m.String()),
					sql.StringValue(n),
					sql.StringValue(tbls.Version()),
					sql.StringValue(tbl.Name()),
					sql.Int64Value(len(tbl.Columns())),
					sql.Int64Value(tbl.Count()),
				})
				idx += 1
			}
		}
	}
	repl.PrintFrame(cmd.OutOrStdout(), f)
	return nil
}
