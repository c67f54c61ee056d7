// Package sst implements the shared-string table of a workbook build.
package sst

import "github.com/arloliu/fastxlsx/internal/hash"

// Table assigns sequential ids to distinct strings in first-seen order.
//
// Strings are keyed by their xxHash64. When two different strings share a hash
// the later one is kept in a small exact-match map, so ids stay unique per value.
//
// Table is not safe for concurrent use; each build owns its own table.
type Table struct {
	byHash     map[uint64]int // hash → id of the first string seen with that hash
	collisions map[string]int // exact-match ids for strings whose hash was taken
	values     []string       // insertion-ordered distinct values
	refs       int            // total number of lookups (cell references)
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		byHash: make(map[uint64]int),
		values: make([]string, 0, 64),
	}
}

// Index returns the id of s, adding it to the table when it is new.
// Every call counts as one cell reference.
func (t *Table) Index(s string) int {
	t.refs++

	h := hash.String(s)
	if id, ok := t.byHash[h]; ok {
		if t.values[id] == s {
			return id
		}

		return t.indexCollision(s)
	}

	id := len(t.values)
	t.byHash[h] = id
	t.values = append(t.values, s)

	return id
}

func (t *Table) indexCollision(s string) int {
	if t.collisions == nil {
		t.collisions = make(map[string]int)
	}

	if id, ok := t.collisions[s]; ok {
		return id
	}

	id := len(t.values)
	t.collisions[s] = id
	t.values = append(t.values, s)

	return id
}

// Values returns the distinct strings in id order.
func (t *Table) Values() []string {
	return t.values
}

// Len returns the number of distinct strings.
func (t *Table) Len() int {
	return len(t.values)
}

// References returns the total number of Index calls since the last Reset.
func (t *Table) References() int {
	return t.refs
}

// HasCollision reports whether two distinct strings shared a hash.
func (t *Table) HasCollision() bool {
	return len(t.collisions) > 0
}

// Reset clears the table while keeping allocated capacity.
func (t *Table) Reset() {
	clear(t.byHash)
	t.collisions = nil
	t.values = t.values[:0]
	t.refs = 0
}
