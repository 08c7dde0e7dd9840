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
)

// DisassembleChunk writes a human-readable listing of every instruction in
// the chunk to w.
func DisassembleChunk(w io.Writer, c *Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction writes one instruction at offset and returns the
// offset of the next. The line column shows '|' when the line repeats.
func DisassembleInstruction(w io.Writer, c *Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.LineOf(offset) == c.LineOf(offset-1) {
		fmt.Fprintf(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.LineOf(offset))
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal,
		OpGetProperty, OpSetProperty, OpClass, OpMethod:
		return constantInstruction(w, op, c, offset)

	case OpConstantLong:
		index := int(c.Code[offset+1])<<16 | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])
		fmt.Fprintf(w, "%-16s %4d '%s'\n", op, index, c.Constants[index])
		return offset + 4

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		fmt.Fprintf(w, "%-16s %4d\n", op, c.Code[offset+1])
		return offset + 2

	case OpJump, OpJumpIfFalse:
		return jumpInstruction(w, op, 1, c, offset)
	case OpLoop:
		return jumpInstruction(w, op, -1, c, offset)

	case OpInvoke:
		index := int(c.Code[offset+1])
		argCount := c.Code[offset+2]
		fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, index, c.Constants[index])
		return offset + 3

	case OpClosure:
		offset++
		index := int(c.Code[offset])
		offset++
		fmt.Fprintf(w, "%-16s %4d '%s'\n", op, index, c.Constants[index])

		fn := c.Constants[index].AsObject().(*Function)
		for i := 0; i < fn.UpvalueCount; i++ {
			isLocal := c.Code[offset]
			idx := c.Code[offset+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(w, "%04d    |                     %s %d\n", offset, kind, idx)
			offset += 2
		}
		return offset

	case OpNil, OpTrue, OpFalse, OpPop, OpEqual, OpGreater, OpLess,
		OpAdd, OpSubtract, OpMultiply, OpDivide, OpNot, OpNegate,
		OpPrint, OpCloseUpvalue, OpReturn:
		fmt.Fprintf(w, "%s\n", op)
		return offset + 1

	default:
		fmt.Fprintf(w, "Unknown opcode %d\n", byte(op))
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op OpCode, c *Chunk, offset int) int {
	index := int(c.Code[offset+1])
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, index, c.Constants[index])
	return offset + 2
}

func jumpInstruction(w io.Writer, op OpCode, sign int, c *Chunk, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

// traceExecution dumps the value stack and the next instruction to stderr.
func (m *VM) traceExecution(frame *CallFrame) {
	fmt.Fprintf(m.stderr, "          ")
	for i := 0; i < m.stackTop; i++ {
		fmt.Fprintf(m.stderr, "[ %s ]", m.stack[i])
	}
	fmt.Fprintf(m.stderr, "\n")
	DisassembleInstruction(m.stderr, &frame.closure.Fn.Chunk, frame.ip)
}
