// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript"
)

const historyFile = ".probescript_history"

// replCommand runs the interactive prompt. Each line is compiled and
// executed on one long-lived VM, so definitions persist between lines and a
// runtime error does not end the session.
func replCommand(ctx *cli.Context) error {
	machine, err := newMachine(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Printf("probescript %s (type scripts, Ctrl-D to exit)\n", version)

	for {
		input, err := line.Prompt(">> ")
		switch err {
		case nil:
			// Fall through to interpret.
		case liner.ErrPromptAborted:
			continue
		case io.EOF:
			fmt.Println()
			saveHistory(line, histPath)
			return nil
		default:
			saveHistory(line, histPath)
			return cli.NewExitError(err.Error(), 1)
		}

		if input == "" {
			continue
		}
		line.AppendHistory(input)
		probescript.Interpret(machine, "repl", input)
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
