// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.

// probescript is the ProbeScript driver: it runs script files, starts an
// interactive REPL, and disassembles compiled chunks.
//
// Usage:
//
//	probescript                 start the REPL
//	probescript run script.pbs  execute a script
//	probescript disasm script.pbs
//
// Exit codes follow the usual interpreter convention: 65 for a compile
// error, 70 for a runtime error.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript"
	"github.com/probechain/probescript/lang/vm"
)

const (
	version = "0.1.0"

	exitCompileError = 65
	exitRuntimeError = 70
)

var (
	traceFlag = cli.BoolFlag{
		Name:  "trace",
		Usage: "Trace every executed instruction to stderr",
	}
	stressGCFlag = cli.BoolFlag{
		Name:  "stress-gc",
		Usage: "Collect garbage on every allocation",
	}
	logGCFlag = cli.BoolFlag{
		Name:  "log-gc",
		Usage: "Log collection cycles to stderr",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored error output",
	}
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "probescript"
	app.Usage = "the ProbeScript interpreter"
	app.Version = version
	app.Flags = []cli.Flag{traceFlag, stressGCFlag, logGCFlag, noColorFlag, configFileFlag}
	app.Commands = []cli.Command{
		{
			Action:      runCommand,
			Name:        "run",
			Usage:       "Execute a ProbeScript source file",
			ArgsUsage:   "<script.pbs>",
			Description: `The run command compiles and executes a script, then exits.`,
		},
		{
			Action:      disasmCommand,
			Name:        "disasm",
			Usage:       "Compile a source file and print its bytecode",
			ArgsUsage:   "<script.pbs>",
			Description: `The disasm command compiles a script and prints the disassembly of every function in it without executing anything.`,
		},
	}
	app.Action = replCommand

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newMachine builds a VM from the command line and the optional TOML
// configuration file. Flags win over file settings.
func newMachine(ctx *cli.Context) (*vm.VM, error) {
	cfg := defaultVMConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return nil, err
		}
	}
	if ctx.GlobalBool(traceFlag.Name) {
		cfg.TraceExecution = true
	}
	if ctx.GlobalBool(stressGCFlag.Name) {
		cfg.StressGC = true
	}
	if ctx.GlobalBool(logGCFlag.Name) {
		cfg.LogGC = true
	}

	cfg.ColorErrors = !ctx.GlobalBool(noColorFlag.Name) && stderrIsTerminal()
	if cfg.ColorErrors {
		cfg.Stderr = colorable.NewColorableStderr()
	}

	return vm.New(cfg), nil
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runCommand(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: probescript run <script.pbs>", 1)
	}
	filename := ctx.Args().First()
	source, err := os.ReadFile(filename)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	machine, err := newMachine(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	switch probescript.Interpret(machine, filename, string(source)) {
	case vm.InterpretCompileError:
		os.Exit(exitCompileError)
	case vm.InterpretRuntimeError:
		os.Exit(exitRuntimeError)
	}
	return nil
}

func disasmCommand(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: probescript disasm <script.pbs>", 1)
	}
	filename := ctx.Args().First()
	source, err := os.ReadFile(filename)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	machine, err := newMachine(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	fn := probescript.CompileOnly(machine, filename, string(source))
	if fn == nil {
		os.Exit(exitCompileError)
	}
	disassembleAll(fn)
	return nil
}

// disassembleAll prints fn's chunk followed by every function nested in its
// constant pool, depth first.
func disassembleAll(fn *vm.Function) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	vm.DisassembleChunk(os.Stdout, &fn.Chunk, name)

	for _, constant := range fn.Chunk.Constants {
		if !constant.IsObject() {
			continue
		}
		if nested, ok := constant.AsObject().(*vm.Function); ok {
			fmt.Println()
			disassembleAll(nested)
		}
	}
}
