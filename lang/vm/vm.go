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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

const (
	// FramesMax bounds call depth; exceeding it is a stack overflow.
	FramesMax = 64
	// StackMax is the value stack capacity.
	StackMax = FramesMax * 256
)

// InterpretResult is the outcome of one Interpret run.
type InterpretResult int

const (
	// InterpretOK is normal completion.
	InterpretOK InterpretResult = iota
	// InterpretCompileError reports a front-end failure.
	InterpretCompileError
	// InterpretRuntimeError reports a failure during dispatch.
	InterpretRuntimeError
)

var resultNames = [...]string{
	InterpretOK:           "OK",
	InterpretCompileError: "COMPILE_ERROR",
	InterpretRuntimeError: "RUNTIME_ERROR",
}

// String returns the status name.
func (r InterpretResult) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// Config tunes one VM instance.
type Config struct {
	// TraceExecution dumps the stack and each instruction to stderr.
	TraceExecution bool
	// StressGC collects on every allocation.
	StressGC bool
	// LogGC logs collection cycles to stderr.
	LogGC bool
	// GCGrowthFactor scales the next collection threshold after a sweep.
	// Values below 2 are clamped to 2.
	GCGrowthFactor int
	// ColorErrors renders runtime error reports on stderr in red. Compile
	// diagnostics, traces, and GC logs are written uncolored.
	ColorErrors bool
	// Stdout receives program output (OpPrint and diagnostics). Defaults to
	// os.Stdout.
	Stdout io.Writer
	// Stderr receives errors and traces. Defaults to os.Stderr.
	Stderr io.Writer
}

// DefaultConfig holds the settings used when a zero Config is given.
var DefaultConfig = Config{
	GCGrowthFactor: 2,
}

// CallFrame is one activation of a closure: the closure itself, the
// instruction pointer into its chunk, and the stack index of slot zero.
// slots equals stackTop - argCount - 1 at call time and is stable for the
// frame's lifetime.
type CallFrame struct {
	closure *Closure
	ip      int
	slots   int
}

// VM is a ProbeScript virtual machine. Instances are independent; a VM is
// single-threaded and reusable across Interpret calls, including after a
// runtime error.
type VM struct {
	config Config

	stack    [StackMax]Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	globals Table
	strings Table

	initString   *String
	openUpvalues *Upvalue

	// GC bookkeeping.
	objects        Object
	bytesAllocated int
	nextGC         int
	grayStack      []Object
	compilerRoots  func(mark func(Object))

	stdout io.Writer
	stderr io.Writer
	epoch  time.Time
}

// New creates a VM, interns its fixed strings, and registers the built-in
// globals.
func New(config Config) *VM {
	if config.GCGrowthFactor == 0 {
		config.GCGrowthFactor = DefaultConfig.GCGrowthFactor
	}
	m := &VM{
		config: config,
		nextGC: gcInitialThreshold,
		stdout: config.Stdout,
		stderr: config.Stderr,
		epoch:  time.Now(),
	}
	if m.stdout == nil {
		m.stdout = os.Stdout
	}
	if m.stderr == nil {
		m.stderr = os.Stderr
	}
	m.resetStack()
	m.initString = m.TakeString("init")
	m.defineNatives()
	return m
}

// Stdout returns the writer program output goes to.
func (m *VM) Stdout() io.Writer { return m.stdout }

// Stderr returns the writer errors and traces go to.
func (m *VM) Stderr() io.Writer { return m.stderr }

func (m *VM) resetStack() {
	m.stackTop = 0
	m.frameCount = 0
	m.openUpvalues = nil
}

func (m *VM) push(v Value) {
	m.stack[m.stackTop] = v
	m.stackTop++
}

func (m *VM) pop() Value {
	m.stackTop--
	return m.stack[m.stackTop]
}

func (m *VM) peek(distance int) Value {
	return m.stack[m.stackTop-1-distance]
}

// ---- Errors ----------------------------------------------------------------

// errorf writes a diagnostic line to stderr, red when ColorErrors is set.
func (m *VM) errorf(format string, args ...interface{}) {
	if m.config.ColorErrors {
		color.New(color.FgRed).Fprintf(m.stderr, format, args...)
		return
	}
	fmt.Fprintf(m.stderr, format, args...)
}

// runtimeError reports a runtime failure with the current source line and a
// stack trace walked from the innermost frame outward, then resets the VM so
// it stays usable.
func (m *VM) runtimeError(format string, args ...interface{}) {
	frame := &m.frames[m.frameCount-1]
	line := frame.closure.Fn.Chunk.LineOf(frame.ip - 1)
	m.errorf("[RuntimeError at line %d] ", line)
	m.errorf(format, args...)
	m.errorf("\n")

	for i := m.frameCount - 1; i >= 0; i-- {
		frame := &m.frames[i]
		fn := frame.closure.Fn
		// ip sits on the next instruction to be executed.
		line := fn.Chunk.LineOf(frame.ip - 1)
		if fn.Name == nil {
			m.errorf("[line %d] in script\n", line)
		} else {
			m.errorf("[line %d] in %s()\n", line, fn.Name.Chars)
		}
	}

	m.resetStack()
}

// ---- Calls -----------------------------------------------------------------

func (m *VM) call(closure *Closure, argCount int) bool {
	if argCount != closure.Fn.Arity {
		m.runtimeError("Expected %d arguments but got %d.", closure.Fn.Arity, argCount)
		return false
	}
	if m.frameCount == FramesMax {
		m.runtimeError("Stack overflow.")
		return false
	}

	frame := &m.frames[m.frameCount]
	m.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = m.stackTop - argCount - 1
	return true
}

func (m *VM) callValue(callee Value, argCount int) bool {
	if callee.IsObject() {
		switch o := callee.AsObject().(type) {
		case *Closure:
			return m.call(o, argCount)
		case *Native:
			result := o.Fn(argCount, m.stack[m.stackTop-argCount:m.stackTop])
			m.stackTop -= argCount + 1
			m.push(result)
			return true
		case *Class:
			instance := m.newInstance(o)
			m.stack[m.stackTop-argCount-1] = ObjectValue(instance)
			if initializer, ok := o.Methods.Get(m.initString); ok {
				return m.call(initializer.AsObject().(*Closure), argCount)
			}
			if argCount != 0 {
				m.runtimeError("Expected 0 arguments but got %d.", argCount)
				return false
			}
			return true
		case *BoundMethod:
			m.stack[m.stackTop-argCount-1] = o.Receiver
			return m.call(o.Method, argCount)
		}
	}
	m.runtimeError("Can only call functions and classes.")
	return false
}

func (m *VM) invokeFromClass(class *Class, name *String, argCount int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		m.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return m.call(method.AsObject().(*Closure), argCount)
}

func (m *VM) invoke(name *String, argCount int) bool {
	receiver := m.peek(argCount)
	if !receiver.IsObject() {
		m.runtimeError("Only instances have methods.")
		return false
	}
	instance, ok := receiver.AsObject().(*Instance)
	if !ok {
		m.runtimeError("Only instances have methods.")
		return false
	}

	// A field shadowing the method name wins; it may hold any callable.
	if field, ok := instance.Fields.Get(name); ok {
		m.stack[m.stackTop-argCount-1] = field
		return m.callValue(field, argCount)
	}
	return m.invokeFromClass(instance.Class, name, argCount)
}

func (m *VM) bindMethod(class *Class, name *String) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		m.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := m.newBoundMethod(m.peek(0), method.AsObject().(*Closure))
	m.pop()
	m.push(ObjectValue(bound))
	return true
}

// ---- Upvalues --------------------------------------------------------------

// captureUpvalue returns the open upvalue for the given stack slot, creating
// and splicing one in descending-slot order if none exists. Sharing by slot
// gives every closure over the same local the same cell.
func (m *VM) captureUpvalue(slot int) *Upvalue {
	var prev *Upvalue
	u := m.openUpvalues
	for u != nil && u.slot > slot {
		prev = u
		u = u.next
	}
	if u != nil && u.slot == slot {
		return u
	}

	created := m.newUpvalue(slot)
	created.next = u
	if prev == nil {
		m.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the threshold slot:
// the slot's value moves inline into the cell and the cell leaves the open
// list.
func (m *VM) closeUpvalues(last int) {
	for m.openUpvalues != nil && m.openUpvalues.slot >= last {
		u := m.openUpvalues
		u.closed = m.stack[u.slot]
		u.isClosed = true
		m.openUpvalues = u.next
		u.next = nil
	}
}

// upvalueGet reads through an upvalue cell.
func (m *VM) upvalueGet(u *Upvalue) Value {
	if u.isClosed {
		return u.closed
	}
	return m.stack[u.slot]
}

// upvalueSet writes through an upvalue cell.
func (m *VM) upvalueSet(u *Upvalue, v Value) {
	if u.isClosed {
		u.closed = v
		return
	}
	m.stack[u.slot] = v
}

// ---- Strings ---------------------------------------------------------------

// concatenate replaces the two values at the top with their string
// concatenation. Both operands stay on the stack until the result exists, so
// a collection triggered by the new string cannot reclaim them. The
// intermediate buffer is charged to the allocation total while interning
// runs; afterwards the result's own charge covers the bytes.
func (m *VM) concatenate() {
	b := m.peek(0)
	a := m.peek(1)
	chars := stringify(a) + stringify(b)
	m.bytesAllocated += len(chars)
	result := m.TakeString(chars)
	m.bytesAllocated -= len(chars)
	m.pop()
	m.pop()
	m.push(ObjectValue(result))
}

// stringify renders a string or number operand of OpAdd. Callers have
// already ruled out the other variants.
func stringify(v Value) string {
	if v.IsString() {
		return v.AsString().Chars
	}
	return formatNumber(v.AsNumber())
}

// addable reports whether v may appear next to a string in OpAdd.
func addable(v Value) bool {
	return v.IsString() || v.IsNumber()
}

// ---- Interpret -------------------------------------------------------------

// Interpret wraps a compiled top-level function in a closure, pushes it as
// frame zero, and runs the dispatch loop to completion or error.
func (m *VM) Interpret(fn *Function) InterpretResult {
	m.push(ObjectValue(fn))
	closure := m.newClosure(fn)
	m.pop()
	m.push(ObjectValue(closure))
	m.callValue(ObjectValue(closure), 0)

	return m.run()
}

func (m *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Fn.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (m *VM) readShort(frame *CallFrame) int {
	code := frame.closure.Fn.Chunk.Code
	v := int(code[frame.ip])<<8 | int(code[frame.ip+1])
	frame.ip += 2
	return v
}

func (m *VM) readConstant(frame *CallFrame) Value {
	return frame.closure.Fn.Chunk.Constants[m.readByte(frame)]
}

func (m *VM) readString(frame *CallFrame) *String {
	return m.readConstant(frame).AsString()
}

// run is the dispatch loop: decode and execute one opcode per step.
func (m *VM) run() InterpretResult {
	frame := &m.frames[m.frameCount-1]

	for {
		if m.config.TraceExecution {
			m.traceExecution(frame)
		}

		switch op := OpCode(m.readByte(frame)); op {
		case OpConstant:
			m.push(m.readConstant(frame))

		case OpConstantLong:
			code := frame.closure.Fn.Chunk.Code
			index := int(code[frame.ip])<<16 | int(code[frame.ip+1])<<8 | int(code[frame.ip+2])
			frame.ip += 3
			m.push(frame.closure.Fn.Chunk.Constants[index])

		case OpNil:
			m.push(NilValue())
		case OpTrue:
			m.push(BoolValue(true))
		case OpFalse:
			m.push(BoolValue(false))
		case OpPop:
			m.pop()

		case OpGetLocal:
			slot := int(m.readByte(frame))
			m.push(m.stack[frame.slots+slot])

		case OpSetLocal:
			slot := int(m.readByte(frame))
			m.stack[frame.slots+slot] = m.peek(0)

		case OpGetGlobal:
			name := m.readString(frame)
			value, ok := m.globals.Get(name)
			if !ok {
				m.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
			m.push(value)

		case OpDefineGlobal:
			name := m.readString(frame)
			m.globals.Set(name, m.peek(0))
			m.pop()

		case OpSetGlobal:
			name := m.readString(frame)
			if m.globals.Set(name, m.peek(0)) {
				// The insert created the key: assignment to an undefined
				// global. Undo it before erroring.
				m.globals.Delete(name)
				m.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}

		case OpGetUpvalue:
			slot := int(m.readByte(frame))
			m.push(m.upvalueGet(frame.closure.Upvalues[slot]))

		case OpSetUpvalue:
			slot := int(m.readByte(frame))
			m.upvalueSet(frame.closure.Upvalues[slot], m.peek(0))

		case OpGetProperty:
			receiver := m.peek(0)
			instance, ok := asInstance(receiver)
			if !ok {
				m.runtimeError("Only instances have properties.")
				return InterpretRuntimeError
			}
			name := m.readString(frame)
			if value, ok := instance.Fields.Get(name); ok {
				m.pop()
				m.push(value)
				break
			}
			if !m.bindMethod(instance.Class, name) {
				return InterpretRuntimeError
			}

		case OpSetProperty:
			instance, ok := asInstance(m.peek(1))
			if !ok {
				m.runtimeError("Only instances have fields.")
				return InterpretRuntimeError
			}
			name := m.readString(frame)
			instance.Fields.Set(name, m.peek(0))
			// Leave the assigned value as the expression result.
			value := m.pop()
			m.pop()
			m.push(value)

		case OpEqual:
			b := m.pop()
			a := m.pop()
			m.push(BoolValue(a.Equals(b)))

		case OpGreater, OpLess, OpSubtract, OpMultiply, OpDivide:
			if !m.numericBinary(op) {
				return InterpretRuntimeError
			}

		case OpAdd:
			a := m.peek(1)
			b := m.peek(0)
			switch {
			case (a.IsString() || b.IsString()) && addable(a) && addable(b):
				m.concatenate()
			case a.IsNumber() && b.IsNumber():
				bn := m.pop().AsNumber()
				an := m.pop().AsNumber()
				m.push(NumberValue(an + bn))
			default:
				m.runtimeError("Operands must be numbers or strings.")
				return InterpretRuntimeError
			}

		case OpNot:
			m.push(BoolValue(m.pop().IsFalsey()))

		case OpNegate:
			if !m.peek(0).IsNumber() {
				m.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			m.push(NumberValue(-m.pop().AsNumber()))

		case OpPrint:
			fmt.Fprintln(m.stdout, m.pop().String())

		case OpJump:
			offset := m.readShort(frame)
			frame.ip += offset

		case OpJumpIfFalse:
			offset := m.readShort(frame)
			if m.peek(0).IsFalsey() {
				frame.ip += offset
			}

		case OpLoop:
			offset := m.readShort(frame)
			frame.ip -= offset

		case OpCall:
			argCount := int(m.readByte(frame))
			if !m.callValue(m.peek(argCount), argCount) {
				return InterpretRuntimeError
			}
			frame = &m.frames[m.frameCount-1]

		case OpInvoke:
			method := m.readString(frame)
			argCount := int(m.readByte(frame))
			if !m.invoke(method, argCount) {
				return InterpretRuntimeError
			}
			frame = &m.frames[m.frameCount-1]

		case OpClosure:
			fn := m.readConstant(frame).AsObject().(*Function)
			closure := m.newClosure(fn)
			m.push(ObjectValue(closure))
			for i := 0; i < len(closure.Upvalues); i++ {
				isLocal := m.readByte(frame)
				index := int(m.readByte(frame))
				if isLocal != 0 {
					closure.Upvalues[i] = m.captureUpvalue(frame.slots + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case OpCloseUpvalue:
			m.closeUpvalues(m.stackTop - 1)
			m.pop()

		case OpReturn:
			result := m.pop()
			m.closeUpvalues(frame.slots)
			m.frameCount--
			if m.frameCount == 0 {
				m.pop()
				return InterpretOK
			}
			m.stackTop = frame.slots
			m.push(result)
			frame = &m.frames[m.frameCount-1]

		case OpClass:
			m.push(ObjectValue(m.newClass(m.readString(frame))))

		case OpMethod:
			name := m.readString(frame)
			method := m.peek(0)
			class := m.peek(1).AsObject().(*Class)
			class.Methods.Set(name, method)
			m.pop()

		default:
			m.runtimeError("Unknown opcode %d.", op)
			return InterpretRuntimeError
		}
	}
}

// numericBinary executes one of the number-only binary opcodes, reporting
// false on an operand type error.
func (m *VM) numericBinary(op OpCode) bool {
	if !m.peek(0).IsNumber() || !m.peek(1).IsNumber() {
		m.runtimeError("Operands must be numbers.")
		return false
	}
	b := m.pop().AsNumber()
	a := m.pop().AsNumber()
	switch op {
	case OpGreater:
		m.push(BoolValue(a > b))
	case OpLess:
		m.push(BoolValue(a < b))
	case OpSubtract:
		m.push(NumberValue(a - b))
	case OpMultiply:
		m.push(NumberValue(a * b))
	case OpDivide:
		m.push(NumberValue(a / b))
	}
	return true
}

func asInstance(v Value) (*Instance, bool) {
	if !v.IsObject() {
		return nil, false
	}
	i, ok := v.AsObject().(*Instance)
	return i, ok
}
