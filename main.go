package main

import (
	"os"

	"github.com/leftmike/sqlmirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
