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

// ObjType discriminates the heap object variants.
type ObjType uint8

const (
	// ObjString is an immutable interned byte string.
	ObjString ObjType = iota
	// ObjFunction is a compiled function body.
	ObjFunction
	// ObjNative is a host-provided callable.
	ObjNative
	// ObjClosure pairs a function with its captured upvalues.
	ObjClosure
	// ObjUpvalue is a variable cell shared between closures.
	ObjUpvalue
	// ObjClass is a class with a method table.
	ObjClass
	// ObjInstance is an instance with a field table.
	ObjInstance
	// ObjBoundMethod pairs a receiver with a method closure.
	ObjBoundMethod
)

var objTypeNames = [...]string{
	ObjString:      "string",
	ObjFunction:    "function",
	ObjNative:      "native",
	ObjClosure:     "closure",
	ObjUpvalue:     "upvalue",
	ObjClass:       "class",
	ObjInstance:    "instance",
	ObjBoundMethod: "bound method",
}

// String returns the variant name.
func (t ObjType) String() string {
	if int(t) < len(objTypeNames) {
		return objTypeNames[t]
	}
	return "unknown"
}

// gcHeader is the common header embedded at the start of every heap object:
// the mark bit for the collector and the link forming the all-objects list
// walked by the sweep phase.
type gcHeader struct {
	marked bool
	next   Object
}

func (h *gcHeader) header() *gcHeader { return h }

// Object is a reference into the VM heap. Concrete variants embed gcHeader
// and report their tag through Type.
type Object interface {
	Type() ObjType
	header() *gcHeader
}

// ---- String ----------------------------------------------------------------

// String is an immutable byte sequence with a precomputed FNV-1a content
// hash. Strings are interned: two strings with equal bytes share identity,
// so equality reduces to pointer comparison.
type String struct {
	gcHeader
	Chars string
	Hash  uint32
}

// Type implements Object.
func (s *String) Type() ObjType { return ObjString }

// hashString computes the 32-bit FNV-1a hash of s.
func hashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ---- Function --------------------------------------------------------------

// Function is a compiled function body: its chunk, arity, declared upvalue
// count, and an optional name. The top-level script compiles to a nameless
// function.
type Function struct {
	gcHeader
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *String
}

// Type implements Object.
func (f *Function) Type() ObjType { return ObjFunction }

// ---- Native ----------------------------------------------------------------

// NativeFn is the signature of a host-provided callable. args is a window
// over the VM stack covering exactly argCount values; implementations must
// not retain it.
type NativeFn func(argCount int, args []Value) Value

// Native wraps a host callable registered as a global.
type Native struct {
	gcHeader
	Fn NativeFn
}

// Type implements Object.
func (n *Native) Type() ObjType { return ObjNative }

// ---- Closure ---------------------------------------------------------------

// Closure is a function paired with the upvalues it captured. Its upvalue
// slice length always equals the function's declared UpvalueCount.
type Closure struct {
	gcHeader
	Fn       *Function
	Upvalues []*Upvalue
}

// Type implements Object.
func (c *Closure) Type() ObjType { return ObjClosure }

// ---- Upvalue ---------------------------------------------------------------

// Upvalue is a cell giving a closure access to an enclosing function's local
// after that function has returned. While open it designates a live stack
// slot by index; closing copies the slot's value inline. Open upvalues are
// linked in a per-VM list ordered by descending slot index.
type Upvalue struct {
	gcHeader
	slot     int   // stack slot index while open
	closed   Value // inline value once closed
	isClosed bool
	next     *Upvalue
}

// Type implements Object.
func (u *Upvalue) Type() ObjType { return ObjUpvalue }

// ---- Class -----------------------------------------------------------------

// Class is a named collection of methods.
type Class struct {
	gcHeader
	Name    *String
	Methods Table
}

// Type implements Object.
func (c *Class) Type() ObjType { return ObjClass }

// ---- Instance --------------------------------------------------------------

// Instance is a class instance with its own field table.
type Instance struct {
	gcHeader
	Class  *Class
	Fields Table
}

// Type implements Object.
func (i *Instance) Type() ObjType { return ObjInstance }

// ---- BoundMethod -----------------------------------------------------------

// BoundMethod pins a receiver to a method closure so the method can be
// passed around as a first-class value and later called with `this` bound.
type BoundMethod struct {
	gcHeader
	Receiver Value
	Method   *Closure
}

// Type implements Object.
func (b *BoundMethod) Type() ObjType { return ObjBoundMethod }

// ---- Printing --------------------------------------------------------------

// objectString renders a heap object in its canonical printed form.
func objectString(o Object) string {
	switch o := o.(type) {
	case *String:
		return o.Chars
	case *Function:
		return functionName(o)
	case *Native:
		return "<native fn>"
	case *Closure:
		return functionName(o.Fn)
	case *Upvalue:
		return "upvalue"
	case *Class:
		return o.Name.Chars
	case *Instance:
		return o.Class.Name.Chars + " instance"
	case *BoundMethod:
		return functionName(o.Method.Fn)
	default:
		return "unknown object"
	}
}

func functionName(f *Function) string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}
