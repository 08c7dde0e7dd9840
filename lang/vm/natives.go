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
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
)

// defineNatives registers the built-in globals. Natives are synchronous and
// non-blocking; they receive a window over the value stack and must not
// retain it.
func (m *VM) defineNatives() {
	m.defineNative("clock", func(argCount int, args []Value) Value {
		return NumberValue(time.Since(m.epoch).Seconds())
	})

	m.defineNative("len", func(argCount int, args []Value) Value {
		if argCount != 1 || !args[0].IsString() {
			return NilValue()
		}
		// Count UTF-8 codepoints: every byte except 10xxxxxx continuations
		// starts one.
		n := 0
		for _, b := range []byte(args[0].AsString().Chars) {
			if b&0xC0 != 0x80 {
				n++
			}
		}
		return NumberValue(float64(n))
	})

	m.defineNative("blen", func(argCount int, args []Value) Value {
		if argCount != 1 || !args[0].IsString() {
			return NilValue()
		}
		return NumberValue(float64(len(args[0].AsString().Chars)))
	})

	m.defineNative("printGlobals", func(argCount int, args []Value) Value {
		m.printGlobals()
		return NilValue()
	})
}

// defineNative interns the name and binds the callable in the globals table.
// Name and native are kept on the stack across the two allocations so a
// collection between them cannot reclaim either.
func (m *VM) defineNative(name string, fn NativeFn) {
	m.push(ObjectValue(m.TakeString(name)))
	m.push(ObjectValue(m.newNative(fn)))
	m.globals.Set(m.stack[0].AsString(), m.stack[1])
	m.pop()
	m.pop()
}

// printGlobals renders the globals table to stdout, sorted by name.
func (m *VM) printGlobals() {
	type binding struct {
		name, kind, value string
	}
	var rows []binding
	m.globals.each(func(key *String, value Value) {
		kind := "value"
		if value.IsObject() {
			kind = value.AsObject().Type().String()
		} else if value.IsNumber() {
			kind = "number"
		} else if value.IsBool() {
			kind = "bool"
		} else if value.IsNil() {
			kind = "nil"
		}
		rows = append(rows, binding{name: key.Chars, kind: kind, value: value.String()})
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	table := tablewriter.NewWriter(m.stdout)
	table.SetHeader([]string{"Name", "Kind", "Value"})
	for _, r := range rows {
		table.Append([]string{r.name, r.kind, r.value})
	}
	table.Render()
}
