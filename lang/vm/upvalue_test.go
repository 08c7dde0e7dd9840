// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "testing"

// openSlots returns the slot indices of the open-upvalue list head to tail.
func openSlots(m *VM) []int {
	var slots []int
	for u := m.openUpvalues; u != nil; u = u.next {
		slots = append(slots, u.slot)
	}
	return slots
}

func TestCaptureUpvalueOrdering(t *testing.T) {
	m := New(Config{})
	for i := 0; i < 8; i++ {
		m.push(NumberValue(float64(i)))
	}

	// Capture out of order; the list must come out strictly descending.
	for _, slot := range []int{3, 6, 1, 4, 0, 7} {
		m.captureUpvalue(slot)
	}

	got := openSlots(m)
	want := []int{7, 6, 4, 3, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("open upvalues = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("open upvalues = %v; want %v", got, want)
		}
	}
}

func TestCaptureUpvalueShares(t *testing.T) {
	m := New(Config{})
	m.push(NumberValue(1))
	m.push(NumberValue(2))

	first := m.captureUpvalue(1)
	second := m.captureUpvalue(1)
	if first != second {
		t.Fatal("capturing the same slot twice created two cells")
	}
	if got := openSlots(m); len(got) != 1 {
		t.Fatalf("open upvalues = %v; want exactly one", got)
	}
}

func TestCloseUpvaluesThreshold(t *testing.T) {
	m := New(Config{})
	for i := 0; i < 6; i++ {
		m.push(NumberValue(float64(i * 10)))
	}
	var cells []*Upvalue
	for _, slot := range []int{0, 2, 3, 5} {
		cells = append(cells, m.captureUpvalue(slot))
	}

	// Close the prefix with slot >= 3: exactly slots 5 and 3.
	m.closeUpvalues(3)

	got := openSlots(m)
	want := []int{2, 0}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("after close(3): open = %v; want %v", got, want)
	}

	for _, u := range cells {
		switch u.slot {
		case 5, 3:
			if !u.isClosed {
				t.Errorf("slot %d should be closed", u.slot)
			}
			if !u.closed.Equals(NumberValue(float64(u.slot * 10))) {
				t.Errorf("slot %d closed over %s; want %d", u.slot, u.closed, u.slot*10)
			}
		default:
			if u.isClosed {
				t.Errorf("slot %d should still be open", u.slot)
			}
		}
	}
}

func TestClosedUpvalueSurvivesSlotReuse(t *testing.T) {
	m := New(Config{})
	m.push(NumberValue(7))
	u := m.captureUpvalue(0)

	m.closeUpvalues(0)
	// Reuse the stack slot for something else.
	m.stack[0] = NumberValue(999)

	if got := m.upvalueGet(u); !got.Equals(NumberValue(7)) {
		t.Fatalf("closed upvalue reads %s; want 7", got)
	}

	m.upvalueSet(u, NumberValue(8))
	if got := m.upvalueGet(u); !got.Equals(NumberValue(8)) {
		t.Fatalf("closed upvalue after set reads %s; want 8", got)
	}
	if !m.stack[0].Equals(NumberValue(999)) {
		t.Fatal("writing a closed upvalue touched the stack")
	}
}
