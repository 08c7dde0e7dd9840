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

import "strconv"

// ValueType discriminates the variants of Value.
type ValueType uint8

const (
	// ValNil is the nil value.
	ValNil ValueType = iota
	// ValBool is a boolean.
	ValBool
	// ValNumber is an IEEE-754 double.
	ValNumber
	// ValObject is a reference into the heap.
	ValObject
)

// Value is the tagged union flowing through the VM stack, globals, and
// object fields. The zero value is nil.
type Value struct {
	typ ValueType
	b   bool
	num float64
	obj Object
}

// NilValue returns the nil value.
func NilValue() Value { return Value{typ: ValNil} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{typ: ValBool, b: b} }

// NumberValue wraps a float64.
func NumberValue(n float64) Value { return Value{typ: ValNumber, num: n} }

// ObjectValue wraps a heap reference.
func ObjectValue(o Object) Value { return Value{typ: ValObject, obj: o} }

// Type returns the value's variant tag.
func (v Value) Type() ValueType { return v.typ }

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.typ == ValNil }

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool { return v.typ == ValBool }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { return v.typ == ValNumber }

// IsObject reports whether the value is a heap reference.
func (v Value) IsObject() bool { return v.typ == ValObject }

// AsBool returns the boolean payload. Only valid when IsBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload. Only valid when IsNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsObject returns the heap reference. Only valid when IsObject.
func (v Value) AsObject() Object { return v.obj }

// IsString reports whether the value references an interned string.
func (v Value) IsString() bool {
	return v.typ == ValObject && v.obj.Type() == ObjString
}

// AsString returns the string object. Only valid when IsString.
func (v Value) AsString() *String { return v.obj.(*String) }

// IsFalsey implements truthiness: nil and false are falsey, everything else
// is truthy.
func (v Value) IsFalsey() bool {
	return v.typ == ValNil || (v.typ == ValBool && !v.b)
}

// Equals implements value equality. Booleans and numbers compare by value;
// objects compare by reference identity. Interning makes string identity
// coincide with content equality.
func (v Value) Equals(w Value) bool {
	if v.typ != w.typ {
		return false
	}
	switch v.typ {
	case ValNil:
		return true
	case ValBool:
		return v.b == w.b
	case ValNumber:
		return v.num == w.num
	case ValObject:
		return v.obj == w.obj
	default:
		return false
	}
}

// String renders the value in its canonical printed form.
func (v Value) String() string {
	switch v.typ {
	case ValNil:
		return "nil"
	case ValBool:
		if v.b {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.num)
	case ValObject:
		return objectString(v.obj)
	default:
		return "?"
	}
}

// formatNumber renders a double in its shortest round-trippable decimal form.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
