// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "testing"

func TestValueEquality(t *testing.T) {
	m := New(Config{})
	hello := m.TakeString("hello")
	world := m.TakeString("world")

	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil-nil", NilValue(), NilValue(), true},
		{"nil-false", NilValue(), BoolValue(false), false},
		{"true-true", BoolValue(true), BoolValue(true), true},
		{"true-false", BoolValue(true), BoolValue(false), false},
		{"num-num", NumberValue(3), NumberValue(3), true},
		{"num-num-diff", NumberValue(3), NumberValue(4), false},
		{"num-bool", NumberValue(1), BoolValue(true), false},
		{"str-same", ObjectValue(hello), ObjectValue(m.TakeString("hello")), true},
		{"str-diff", ObjectValue(hello), ObjectValue(world), false},
	}
	for _, tc := range cases {
		if got := tc.a.Equals(tc.b); got != tc.want {
			t.Errorf("%s: Equals = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestValueTruthiness(t *testing.T) {
	m := New(Config{})

	falsey := []Value{NilValue(), BoolValue(false)}
	truthy := []Value{
		BoolValue(true),
		NumberValue(0), // zero is truthy
		NumberValue(1),
		ObjectValue(m.TakeString("")), // even the empty string
	}

	for _, v := range falsey {
		if !v.IsFalsey() {
			t.Errorf("%s should be falsey", v)
		}
	}
	for _, v := range truthy {
		if v.IsFalsey() {
			t.Errorf("%s should be truthy", v)
		}
	}
}

func TestValuePrinting(t *testing.T) {
	m := New(Config{})

	fn := m.NewFunction()
	fn.Name = m.TakeString("fib")
	script := m.NewFunction()
	class := m.newClass(m.TakeString("Point"))
	instance := m.newInstance(class)

	cases := []struct {
		v    Value
		want string
	}{
		{NilValue(), "nil"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{NumberValue(3), "3"},
		{NumberValue(2.5), "2.5"},
		{NumberValue(-0.5), "-0.5"},
		{ObjectValue(m.TakeString("hi")), "hi"},
		{ObjectValue(fn), "<fn fib>"},
		{ObjectValue(script), "<script>"},
		{ObjectValue(class), "Point"},
		{ObjectValue(instance), "Point instance"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q; want %q", got, tc.want)
		}
	}
}

func TestFormatNumberShortest(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{3, "3"},
		{-7, "-7"},
		{0.1, "0.1"},
		{1.0 / 3.0, "0.3333333333333333"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.n); got != tc.want {
			t.Errorf("formatNumber(%v) = %q; want %q", tc.n, got, tc.want)
		}
	}
}
