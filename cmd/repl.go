package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leftmike/sqlmirror/loader"
	"github.com/leftmike/sqlmirror/repl"
)

var (
	replCmd = &cobra.Command{
		Use:   "repl",
		Short: "Load the configured sources and run an interactive console",
		Args:  cobra.NoArgs,
		RunE:  replRun,
	}
)

func init() {
	sqlmirrorCmd.AddCommand(replCmd)
}

func replRun(cmd *cobra.Command, args []string) error {
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

	repl.Interact(ctx, r)
	return nil
}
