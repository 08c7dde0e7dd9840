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

import "fmt"

// collectGarbage runs one full tri-color mark-sweep cycle. Every live object
// must be reachable from the VM's roots: the value stack, the frame stack's
// closures, the open-upvalue list, the globals table, the interned "init"
// string, and — when a compile is in progress — the compiler's function
// chain.
func (m *VM) collectGarbage() {
	before := m.bytesAllocated
	if m.config.LogGC {
		fmt.Fprintf(m.stderr, "-- gc begin (%d bytes)\n", before)
	}

	m.grayStack = m.grayStack[:0]
	m.markRoots()
	m.traceReferences()

	// The intern table holds its keys weakly: clear entries for doomed
	// strings before the sweep unlinks them.
	m.strings.removeWhite()

	m.sweep()

	factor := m.config.GCGrowthFactor
	if factor < 2 {
		factor = 2
	}
	m.nextGC = m.bytesAllocated * factor

	if m.config.LogGC {
		fmt.Fprintf(m.stderr, "-- gc end, collected %d bytes (%d remain, next at %d)\n",
			before-m.bytesAllocated, m.bytesAllocated, m.nextGC)
	}
}

func (m *VM) markRoots() {
	for i := 0; i < m.stackTop; i++ {
		m.markValue(m.stack[i])
	}

	for i := 0; i < m.frameCount; i++ {
		m.markObject(m.frames[i].closure)
	}

	for u := m.openUpvalues; u != nil; u = u.next {
		m.markObject(u)
	}

	m.markTable(&m.globals)
	// initString is still unset if a stress-mode collection runs during the
	// very first interning in New.
	if m.initString != nil {
		m.markObject(m.initString)
	}

	if m.compilerRoots != nil {
		m.compilerRoots(m.markObject)
	}
}

// markValue paints a value's referent gray if it has one.
func (m *VM) markValue(v Value) {
	if v.IsObject() {
		m.markObject(v.AsObject())
	}
}

// markObject paints o gray: sets the mark bit and queues it for blackening.
func (m *VM) markObject(o Object) {
	if o == nil {
		return
	}
	h := o.header()
	if h.marked {
		return
	}
	h.marked = true
	m.grayStack = append(m.grayStack, o)
}

func (m *VM) markTable(t *Table) {
	t.each(func(key *String, value Value) {
		m.markObject(key)
		m.markValue(value)
	})
}

// traceReferences drains the gray worklist, blackening one object at a time.
func (m *VM) traceReferences() {
	for len(m.grayStack) > 0 {
		o := m.grayStack[len(m.grayStack)-1]
		m.grayStack = m.grayStack[:len(m.grayStack)-1]
		m.blackenObject(o)
	}
}

// blackenObject marks everything o references. Strings and natives have no
// outgoing references.
func (m *VM) blackenObject(o Object) {
	switch o := o.(type) {
	case *Upvalue:
		if o.isClosed {
			m.markValue(o.closed)
		} else {
			m.markValue(m.stack[o.slot])
		}
	case *Function:
		// The top-level script function is nameless.
		if o.Name != nil {
			m.markObject(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			m.markValue(c)
		}
	case *Closure:
		m.markObject(o.Fn)
		for _, u := range o.Upvalues {
			// Slots still nil while OpClosure is mid-capture.
			if u != nil {
				m.markObject(u)
			}
		}
	case *Class:
		m.markObject(o.Name)
		m.markTable(&o.Methods)
	case *Instance:
		m.markObject(o.Class)
		m.markTable(&o.Fields)
	case *BoundMethod:
		m.markValue(o.Receiver)
		m.markObject(o.Method)
	}
}

// sweep walks the all-objects list, unlinking and uncharging every unmarked
// object and clearing the mark bit on survivors for the next cycle.
func (m *VM) sweep() {
	var prev Object
	o := m.objects
	for o != nil {
		h := o.header()
		next := h.next
		if h.marked {
			h.marked = false
			prev = o
		} else {
			m.bytesAllocated -= objectSize(o)
			if prev == nil {
				m.objects = next
			} else {
				prev.header().next = next
			}
			h.next = nil
		}
		o = next
	}
}

// SetCompilerRoots registers a callback that marks the front-end's
// in-progress objects as GC roots for the duration of a compile. Pass nil to
// clear it when the compile finishes.
func (m *VM) SetCompilerRoots(roots func(mark func(Object))) {
	m.compilerRoots = roots
}

// objectCount returns the length of the all-objects list. Test hook.
func (m *VM) objectCount() int {
	n := 0
	for o := m.objects; o != nil; o = o.header().next {
		n++
	}
	return n
}
