// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"bytes"
	"strings"
	"testing"
)

// ---- Bytecode builder helpers ----------------------------------------------

// testVM creates a VM whose output streams are capturable buffers.
func testVM() (*VM, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	m := New(Config{Stdout: &stdout, Stderr: &stderr})
	return m, &stdout, &stderr
}

// buildScript assembles a nameless top-level function from opcode bytes and
// constants. Every byte is attributed to line 1.
func buildScript(m *VM, constants []Value, code ...byte) *Function {
	fn := m.NewFunction()
	for _, c := range constants {
		fn.Chunk.AddConstant(c)
	}
	for _, b := range code {
		fn.Chunk.Write(b, 1)
	}
	return fn
}

// runScript interprets a hand-assembled script and fails the test on a
// non-OK status.
func runScript(t *testing.T, m *VM, stderr *bytes.Buffer, fn *Function) {
	t.Helper()
	if status := m.Interpret(fn); status != InterpretOK {
		t.Fatalf("Interpret = %s; stderr:\n%s", status, stderr.String())
	}
}

// ---- Arithmetic ------------------------------------------------------------

func TestRunArithmetic(t *testing.T) {
	m, stdout, stderr := testVM()
	fn := buildScript(m,
		[]Value{NumberValue(1.5), NumberValue(2.5), NumberValue(2)},
		byte(OpConstant), 0, // 1.5
		byte(OpConstant), 1, // 2.5
		byte(OpAdd),         // 4
		byte(OpConstant), 2, // 2
		byte(OpMultiply), // 8
		byte(OpNegate),   // -8
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if got := stdout.String(); got != "-8\n" {
		t.Errorf("output = %q; want \"-8\\n\"", got)
	}
}

func TestRunComparisonsAndEquality(t *testing.T) {
	m, stdout, stderr := testVM()
	fn := buildScript(m,
		[]Value{NumberValue(1), NumberValue(2)},
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpLess), // true
		byte(OpPrint),
		byte(OpConstant), 0,
		byte(OpConstant), 0,
		byte(OpEqual), // true
		byte(OpNot),   // false
		byte(OpPrint),
		byte(OpNil),
		byte(OpFalse),
		byte(OpEqual), // nil == false -> false
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if got := stdout.String(); got != "true\nfalse\nfalse\n" {
		t.Errorf("output = %q", got)
	}
}

// ---- String concatenation --------------------------------------------------

func TestRunAddConcatenatesStrings(t *testing.T) {
	m, stdout, stderr := testVM()
	fn := buildScript(m,
		[]Value{
			ObjectValue(m.TakeString("foo")),
			ObjectValue(m.TakeString("bar")),
		},
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpAdd),
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if got := stdout.String(); got != "foobar\n" {
		t.Errorf("output = %q; want \"foobar\\n\"", got)
	}
}

func TestRunAddCoercesNumberOperand(t *testing.T) {
	m, stdout, stderr := testVM()
	fn := buildScript(m,
		[]Value{
			ObjectValue(m.TakeString("n=")),
			NumberValue(42),
		},
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpAdd),
		byte(OpPrint),
		byte(OpConstant), 1,
		byte(OpConstant), 0,
		byte(OpAdd),
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if got := stdout.String(); got != "n=42\n42n=\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunAddResultIsInterned(t *testing.T) {
	m, _, stderr := testVM()
	fn := buildScript(m,
		[]Value{
			ObjectValue(m.TakeString("con")),
			ObjectValue(m.TakeString("cat")),
		},
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpAdd),
		byte(OpPop),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if m.strings.findString("concat", hashString("concat")) == nil {
		t.Fatal("concatenation result was not interned")
	}
}

// ---- Globals ---------------------------------------------------------------

func TestRunGlobals(t *testing.T) {
	m, stdout, stderr := testVM()
	name := ObjectValue(m.TakeString("answer"))
	fn := buildScript(m,
		[]Value{name, NumberValue(42), NumberValue(43)},
		byte(OpConstant), 1, // 42
		byte(OpDefineGlobal), 0, // answer = 42
		byte(OpConstant), 2, // 43
		byte(OpSetGlobal), 0, // answer = 43
		byte(OpPop),
		byte(OpGetGlobal), 0,
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if got := stdout.String(); got != "43\n" {
		t.Errorf("output = %q; want \"43\\n\"", got)
	}
}

// ---- Runtime errors --------------------------------------------------------

func TestRunNegateTypeError(t *testing.T) {
	m, _, stderr := testVM()
	fn := buildScript(m,
		[]Value{ObjectValue(m.TakeString("x"))},
		byte(OpConstant), 0,
		byte(OpNegate),
		byte(OpNil), byte(OpReturn),
	)
	if status := m.Interpret(fn); status != InterpretRuntimeError {
		t.Fatalf("Interpret = %s; want RUNTIME_ERROR", status)
	}
	out := stderr.String()
	if !strings.Contains(out, "Operand must be a number.") {
		t.Errorf("stderr missing message: %q", out)
	}
	if !strings.Contains(out, "[RuntimeError at line 1]") {
		t.Errorf("stderr missing line attribution: %q", out)
	}
	if !strings.Contains(out, "in script") {
		t.Errorf("stderr missing stack trace: %q", out)
	}
}

func TestRunUndefinedGlobal(t *testing.T) {
	m, _, stderr := testVM()
	fn := buildScript(m,
		[]Value{ObjectValue(m.TakeString("missing"))},
		byte(OpGetGlobal), 0,
		byte(OpNil), byte(OpReturn),
	)
	if status := m.Interpret(fn); status != InterpretRuntimeError {
		t.Fatalf("Interpret = %s; want RUNTIME_ERROR", status)
	}
	if !strings.Contains(stderr.String(), "Undefined variable 'missing'.") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunSetUndefinedGlobalRollsBack(t *testing.T) {
	m, _, stderr := testVM()
	name := m.TakeString("ghost")
	fn := buildScript(m,
		[]Value{ObjectValue(name), NumberValue(1)},
		byte(OpConstant), 1,
		byte(OpSetGlobal), 0,
		byte(OpNil), byte(OpReturn),
	)
	if status := m.Interpret(fn); status != InterpretRuntimeError {
		t.Fatalf("Interpret = %s; want RUNTIME_ERROR", status)
	}
	if _, ok := m.globals.Get(name); ok {
		t.Fatal("failed assignment left the global defined")
	}
	if !strings.Contains(stderr.String(), "Undefined variable 'ghost'.") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunCallNonCallable(t *testing.T) {
	m, _, stderr := testVM()
	fn := buildScript(m,
		[]Value{NumberValue(7)},
		byte(OpConstant), 0,
		byte(OpCall), 0,
		byte(OpNil), byte(OpReturn),
	)
	if status := m.Interpret(fn); status != InterpretRuntimeError {
		t.Fatalf("Interpret = %s; want RUNTIME_ERROR", status)
	}
	if !strings.Contains(stderr.String(), "Can only call functions and classes.") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestVMReusableAfterRuntimeError(t *testing.T) {
	m, stdout, stderr := testVM()

	bad := buildScript(m, []Value{ObjectValue(m.TakeString("x"))},
		byte(OpConstant), 0,
		byte(OpNegate),
		byte(OpNil), byte(OpReturn),
	)
	if status := m.Interpret(bad); status != InterpretRuntimeError {
		t.Fatalf("Interpret = %s; want RUNTIME_ERROR", status)
	}
	if m.stackTop != 0 || m.frameCount != 0 || m.openUpvalues != nil {
		t.Fatal("error did not reset the VM")
	}

	stderr.Reset()
	good := buildScript(m, []Value{NumberValue(5)},
		byte(OpConstant), 0,
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, good)
	if got := stdout.String(); got != "5\n" {
		t.Errorf("output after recovery = %q", got)
	}
}

// ---- Natives ---------------------------------------------------------------

func TestNativeLen(t *testing.T) {
	m, stdout, stderr := testVM()
	fn := buildScript(m,
		[]Value{
			ObjectValue(m.TakeString("len")),
			ObjectValue(m.TakeString("héllo")), // 5 codepoints, 6 bytes
			ObjectValue(m.TakeString("blen")),
		},
		byte(OpGetGlobal), 0,
		byte(OpConstant), 1,
		byte(OpCall), 1,
		byte(OpPrint),
		byte(OpGetGlobal), 2,
		byte(OpConstant), 1,
		byte(OpCall), 1,
		byte(OpPrint),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if got := stdout.String(); got != "5\n6\n" {
		t.Errorf("output = %q; want \"5\\n6\\n\"", got)
	}
}

func TestNativeClockReturnsNonNegativeNumber(t *testing.T) {
	m, _, _ := testVM()
	clock, ok := m.globals.Get(m.TakeString("clock"))
	if !ok {
		t.Fatal("clock not registered")
	}
	native := clock.AsObject().(*Native)
	v := native.Fn(0, nil)
	if !v.IsNumber() || v.AsNumber() < 0 {
		t.Fatalf("clock() = %s", v)
	}
}

// ---- Stack discipline ------------------------------------------------------

func TestStackBalancedAfterRun(t *testing.T) {
	m, _, stderr := testVM()
	fn := buildScript(m,
		[]Value{NumberValue(1), NumberValue(2)},
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpAdd),
		byte(OpPop),
		byte(OpNil), byte(OpReturn),
	)
	runScript(t, m, stderr, fn)

	if m.stackTop != 0 {
		t.Fatalf("stackTop = %d after the outermost return; want 0", m.stackTop)
	}
}
