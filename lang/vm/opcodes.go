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

// Package vm implements the ProbeScript stack-based virtual machine.
// Unlike the PROBE contract VM, which is register-based with a fixed-width
// encoding, the ProbeScript VM executes a variable-width byte stream: one
// opcode byte followed by zero or more operand bytes.
//
// Operand widths:
//   - local/upvalue slots, small constant indices, argument counts: 1 byte
//   - jump offsets: 2 bytes, big-endian
//   - long constant indices: 3 bytes, big-endian
//
// OpClosure is the one irregular instruction: after its 1-byte function
// constant index it carries a (isLocal, index) byte pair for every upvalue
// the closure captures.
package vm

// OpCode is an 8-bit instruction code for the ProbeScript VM.
type OpCode uint8

const (
	// OpConstant pushes Constants[operand] (1-byte index).
	OpConstant OpCode = iota
	// OpConstantLong pushes Constants[operand] (3-byte big-endian index).
	OpConstantLong
	// OpNil pushes the nil value.
	OpNil
	// OpTrue pushes boolean true.
	OpTrue
	// OpFalse pushes boolean false.
	OpFalse
	// OpPop discards the top of the stack.
	OpPop

	// OpGetLocal pushes frame.slots[operand].
	OpGetLocal
	// OpSetLocal writes the stack top into frame.slots[operand] without popping.
	OpSetLocal
	// OpGetGlobal looks the name constant up in the globals table; errors if absent.
	OpGetGlobal
	// OpDefineGlobal sets globals[name] to the stack top, then pops.
	OpDefineGlobal
	// OpSetGlobal writes the stack top into an existing global; errors if absent.
	OpSetGlobal
	// OpGetUpvalue pushes the value behind closure.upvalues[operand].
	OpGetUpvalue
	// OpSetUpvalue writes the stack top through closure.upvalues[operand].
	OpSetUpvalue
	// OpGetProperty reads a field or binds a method on the instance at the top.
	OpGetProperty
	// OpSetProperty writes instance.fields[name]; the value stays on the stack.
	OpSetProperty

	// OpEqual pops two values and pushes their equality.
	OpEqual
	// OpGreater pops two numbers and pushes a > b.
	OpGreater
	// OpLess pops two numbers and pushes a < b.
	OpLess
	// OpAdd adds numbers, or concatenates when either operand is a string.
	OpAdd
	// OpSubtract pops two numbers and pushes a - b.
	OpSubtract
	// OpMultiply pops two numbers and pushes a * b.
	OpMultiply
	// OpDivide pops two numbers and pushes a / b.
	OpDivide
	// OpNot replaces the top with its boolean negation via truthiness.
	OpNot
	// OpNegate arithmetically negates the number at the top.
	OpNegate

	// OpPrint pops the top and writes it to stdout with a trailing newline.
	OpPrint

	// OpJump adds the 2-byte offset to ip unconditionally.
	OpJump
	// OpJumpIfFalse adds the offset to ip when the top is falsey (peek, no pop).
	OpJumpIfFalse
	// OpLoop subtracts the 2-byte offset from ip.
	OpLoop

	// OpCall calls the value sitting below its operand-count arguments.
	OpCall
	// OpInvoke is the fused property-access-and-call fast path:
	// 1-byte method name constant index, then 1-byte argument count.
	OpInvoke
	// OpClosure wraps a function constant in a closure, capturing upvalues.
	OpClosure
	// OpCloseUpvalue closes any upvalue pointing at the top slot, then pops.
	OpCloseUpvalue
	// OpReturn pops the result, unwinds the frame, and pushes the result.
	OpReturn

	// OpClass pushes a new class named by the constant operand.
	OpClass
	// OpMethod adds the closure at the top to the class beneath it, then pops.
	OpMethod

	// opcodeCount must remain the last constant; it gives the total number of
	// defined opcodes and is used for table bounds checks.
	opcodeCount
)

// opcodeInfo groups the human-readable name and operand byte count for an
// opcode. OpClosure's trailing upvalue pairs are not part of operandBytes;
// the disassembler decodes them from the closed-over function.
type opcodeInfo struct {
	// name is used during disassembly and for error messages.
	name string
	// operandBytes is the number of operand bytes following the opcode.
	operandBytes int
}

// opcodeTable maps every defined OpCode to its name and operand width.
var opcodeTable = [opcodeCount]opcodeInfo{
	OpConstant:     {"OP_CONSTANT", 1},
	OpConstantLong: {"OP_CONSTANT_LONG", 3},
	OpNil:          {"OP_NIL", 0},
	OpTrue:         {"OP_TRUE", 0},
	OpFalse:        {"OP_FALSE", 0},
	OpPop:          {"OP_POP", 0},

	OpGetLocal:     {"OP_GET_LOCAL", 1},
	OpSetLocal:     {"OP_SET_LOCAL", 1},
	OpGetGlobal:    {"OP_GET_GLOBAL", 1},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", 1},
	OpSetGlobal:    {"OP_SET_GLOBAL", 1},
	OpGetUpvalue:   {"OP_GET_UPVALUE", 1},
	OpSetUpvalue:   {"OP_SET_UPVALUE", 1},
	OpGetProperty:  {"OP_GET_PROPERTY", 1},
	OpSetProperty:  {"OP_SET_PROPERTY", 1},

	OpEqual:    {"OP_EQUAL", 0},
	OpGreater:  {"OP_GREATER", 0},
	OpLess:     {"OP_LESS", 0},
	OpAdd:      {"OP_ADD", 0},
	OpSubtract: {"OP_SUBTRACT", 0},
	OpMultiply: {"OP_MULTIPLY", 0},
	OpDivide:   {"OP_DIVIDE", 0},
	OpNot:      {"OP_NOT", 0},
	OpNegate:   {"OP_NEGATE", 0},

	OpPrint: {"OP_PRINT", 0},

	OpJump:        {"OP_JUMP", 2},
	OpJumpIfFalse: {"OP_JUMP_IF_FALSE", 2},
	OpLoop:        {"OP_LOOP", 2},

	OpCall:         {"OP_CALL", 1},
	OpInvoke:       {"OP_INVOKE", 2},
	OpClosure:      {"OP_CLOSURE", 1},
	OpCloseUpvalue: {"OP_CLOSE_UPVALUE", 0},
	OpReturn:       {"OP_RETURN", 0},

	OpClass:  {"OP_CLASS", 1},
	OpMethod: {"OP_METHOD", 1},
}

// String returns the mnemonic name of the opcode, suitable for disassembly
// output and debug messages.
func (op OpCode) String() string {
	if int(op) >= len(opcodeTable) {
		return "UNKNOWN"
	}
	return opcodeTable[op].name
}

// OperandBytes returns the number of operand bytes that follow the opcode in
// the instruction stream. For OpClosure this excludes the per-upvalue pairs.
func (op OpCode) OperandBytes() int {
	if int(op) >= len(opcodeTable) {
		return 0
	}
	return opcodeTable[op].operandBytes
}
