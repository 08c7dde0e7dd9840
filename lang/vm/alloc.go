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

// Approximate per-object heap charges, in bytes. The collector's trigger
// arithmetic only needs a consistent measure, not exact sizes.
const (
	baseStringSize     = 40
	functionSize       = 112
	nativeSize         = 32
	baseClosureSize    = 48
	upvalueObjSize     = 56
	classSize          = 72
	instanceSize       = 72
	boundMethodSize    = 48
	upvalueSlotSize    = 16 // per captured upvalue pointer in a closure
	gcInitialThreshold = 1024 * 1024
)

// objectSize returns the heap charge for o. Sweep subtracts the same figure
// that allocation added, so the two must agree.
func objectSize(o Object) int {
	switch o := o.(type) {
	case *String:
		return baseStringSize + len(o.Chars)
	case *Function:
		return functionSize
	case *Native:
		return nativeSize
	case *Closure:
		return baseClosureSize + upvalueSlotSize*len(o.Upvalues)
	case *Upvalue:
		return upvalueObjSize
	case *Class:
		return classSize
	case *Instance:
		return instanceSize
	case *BoundMethod:
		return boundMethodSize
	default:
		return 0
	}
}

// track links a fully-constructed object into the all-objects list and
// charges its size, collecting first when the allocation crosses the GC
// threshold (or on every allocation in stress mode). The collection runs
// before the new object becomes reachable, so callers must root any
// collectable objects the new object references — the VM does this by
// keeping them on the value stack across allocations.
func (m *VM) track(o Object) {
	size := objectSize(o)
	if m.config.StressGC || m.bytesAllocated+size > m.nextGC {
		m.collectGarbage()
	}
	m.bytesAllocated += size

	h := o.header()
	h.next = m.objects
	m.objects = o
}

// TakeString returns the interned string object for chars, allocating one if
// no string with those bytes exists yet. All string creation goes through
// here; it is what makes string equality collapse to identity.
func (m *VM) TakeString(chars string) *String {
	hash := hashString(chars)
	if interned := m.strings.findString(chars, hash); interned != nil {
		return interned
	}
	s := &String{Chars: chars, Hash: hash}
	m.track(s)
	m.strings.Set(s, NilValue())
	return s
}

// NewFunction allocates a blank function object. The compiler fills in the
// chunk, arity, and upvalue count as it goes.
func (m *VM) NewFunction() *Function {
	f := &Function{}
	m.track(f)
	return f
}

func (m *VM) newNative(fn NativeFn) *Native {
	n := &Native{Fn: fn}
	m.track(n)
	return n
}

func (m *VM) newClosure(fn *Function) *Closure {
	c := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	m.track(c)
	return c
}

func (m *VM) newUpvalue(slot int) *Upvalue {
	u := &Upvalue{slot: slot}
	m.track(u)
	return u
}

func (m *VM) newClass(name *String) *Class {
	c := &Class{Name: name}
	m.track(c)
	return c
}

func (m *VM) newInstance(class *Class) *Instance {
	i := &Instance{Class: class}
	m.track(i)
	return i
}

func (m *VM) newBoundMethod(receiver Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	m.track(b)
	return b
}
