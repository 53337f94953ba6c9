package repl

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
)

const (
	historyFile = ".sqlmirror_history"
)

type lineReader struct {
	line   *liner.State
	prompt func() string
}

func (lr lineReader) ReadLine() (string, error) {
	s, err := lr.line.Prompt(lr.prompt())
	if err == liner.ErrPromptAborted {
		return "", io.EOF
	} else if err != nil {
		return "", err
	}
	lr.line.AppendHistory(s)
	return s, nil
}

// Interact runs a console on the terminal.
func Interact(ctx context.Context, m Mirrors) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	rp := New(m, os.Stdout)
	rp.Run(ctx, lineReader{line: line, prompt: rp.prompt})

	if f, err := os.Create(historyFile); err != nil {
		fmt.Fprintf(os.Stderr, "sqlmirror: error writing history file, %s: %s", historyFile, err)
	} else {
		line.WriteHistory(f)
		f.Close()
	}
}
