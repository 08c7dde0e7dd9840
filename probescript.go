// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package probescript ties the ProbeScript front end to its virtual machine.
//
// The compiler and VM are independently usable; this package provides the
// source-to-status entry point most embedders want:
//
//	machine := vm.New(vm.Config{})
//	status := probescript.Interpret(machine, "inline", `print 1 + 2;`)
package probescript

import (
	"github.com/probechain/probescript/lang/compiler"
	"github.com/probechain/probescript/lang/vm"
)

// Interpret compiles source and runs it on machine. The returned status is
// InterpretCompileError when the front end rejects the source (diagnostics
// go to the machine's stderr), otherwise the outcome of execution. The
// machine stays usable after any status, including a runtime error.
func Interpret(machine *vm.VM, filename, source string) vm.InterpretResult {
	fn := compiler.Compile(machine, filename, source)
	if fn == nil {
		return vm.InterpretCompileError
	}
	return machine.Interpret(fn)
}

// CompileOnly compiles source without executing it, returning the top-level
// function for inspection (disassembly, testing). Nil means a compile error.
func CompileOnly(machine *vm.VM, filename, source string) *vm.Function {
	return compiler.Compile(machine, filename, source)
}
