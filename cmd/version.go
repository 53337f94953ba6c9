package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leftmike/sqlmirror/sql"
)

func init() {
	sqlmirrorCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of sqlmirror",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), sql.Version())
			},
		})
}
