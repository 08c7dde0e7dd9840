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

const (
	// tableMaxLoad is the load factor beyond which the entry array grows.
	tableMaxLoad = 0.75
	// tableMinCapacity is the capacity of the first allocation.
	tableMinCapacity = 8
)

// entry is one slot of the open-addressed table. A nil key with a true
// boolean value is a tombstone; a nil key with nil value is empty.
type entry struct {
	key   *String
	value Value
}

// Table is an open-addressed hash table with linear probing and tombstone
// deletion, mapping interned string keys to values. Keys compare by
// identity; hashing uses the string's precomputed FNV-1a hash. The zero
// value is an empty table ready for use.
//
// Both the globals table and the string intern table are Tables; the intern
// table's keys are held weakly by the collector (see removeWhite).
type Table struct {
	count   int // live entries plus tombstones
	entries []entry
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}

// findEntry locates the slot for key: either the entry holding it or the
// first reusable slot (preferring an earlier tombstone) where an insert
// would go. entries must be non-empty.
func findEntry(entries []entry, key *String) *entry {
	index := int(key.Hash) & (len(entries) - 1)
	var tombstone *entry

	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				// Empty slot: the key is absent.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// Tombstone: remember the first one and keep probing.
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & (len(entries) - 1)
	}
}

// adjustCapacity grows the entry array to capacity and re-inserts every live
// entry. Tombstones are dropped, so count is recomputed.
func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)

	t.count = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.key == nil {
			continue
		}
		dest := findEntry(entries, e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}

	t.entries = entries
}

// Get looks key up, reporting whether it was present.
func (t *Table) Get(key *String) (Value, bool) {
	if t.count == 0 {
		return NilValue(), false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return NilValue(), false
	}
	return e.value, true
}

// Set maps key to value, returning true when the key was newly inserted.
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		capacity := len(t.entries) * 2
		if capacity < tableMinCapacity {
			capacity = tableMinCapacity
		}
		t.adjustCapacity(capacity)
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		// Filling a truly empty slot, not reusing a tombstone.
		t.count++
	}

	e.key = key
	e.value = value
	return isNew
}

// Delete removes key, leaving a tombstone to preserve probe chains. It
// reports whether the key was present.
func (t *Table) Delete(key *String) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = BoolValue(true)
	return true
}

// findString probes for an interned string with the given bytes and hash,
// comparing content rather than identity. This is the one lookup path that
// runs before a candidate string has an object identity; all string creation
// funnels through it.
func (t *Table) findString(chars string, hash uint32) *String {
	if t.count == 0 {
		return nil
	}
	index := int(hash) & (len(t.entries) - 1)
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
			// Tombstone: keep probing.
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & (len(t.entries) - 1)
	}
}

// removeWhite deletes every entry whose key is unmarked. The collector calls
// this on the intern table before sweeping so that the table never holds a
// dangling reference to a swept string.
func (t *Table) removeWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			t.Delete(e.key)
		}
	}
}

// each calls fn for every live entry. Iteration order is unspecified.
func (t *Table) each(fn func(key *String, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}
