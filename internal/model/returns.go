package model

import (
	"math"
	"sort"
)

// ReturnEntry is the total return of one symbol over a window, in percent.
type ReturnEntry struct {
	Symbol string
	Return float64
}

// ReturnTable is an immutable, ascending-sorted set of returns.
type ReturnTable struct {
	entries []ReturnEntry
}

// NewReturnTable drops non-finite returns and repeated symbols (the first
// occurrence wins), then sorts ascending. Ties keep their input order.
func NewReturnTable(entries []ReturnEntry) ReturnTable {
	seen := make(map[string]bool, len(entries))
	kept := make([]ReturnEntry, 0, len(entries))
	for _, e := range entries {
		if math.IsNaN(e.Return) || math.IsInf(e.Return, 0) || seen[e.Symbol] {
			continue
		}
		seen[e.Symbol] = true
		kept = append(kept, e)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Return < kept[j].Return })
	return ReturnTable{entries: kept}
}

// Len returns the number of entries.
func (t ReturnTable) Len() int { return len(t.entries) }

// Empty reports whether the table has no entries.
func (t ReturnTable) Empty() bool { return len(t.entries) == 0 }

// Entries returns a copy of the entries in ascending order.
func (t ReturnTable) Entries() []ReturnEntry {
	out := make([]ReturnEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Top returns the n largest returns, best first.
func (t ReturnTable) Top(n int) []ReturnEntry {
	if n > len(t.entries) {
		n = len(t.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]ReturnEntry, 0, n)
	for i := len(t.entries) - 1; i >= len(t.entries)-n; i-- {
		out = append(out, t.entries[i])
	}
	return out
}

// Bottom returns the n smallest returns, worst first.
func (t ReturnTable) Bottom(n int) []ReturnEntry {
	if n > len(t.entries) {
		n = len(t.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]ReturnEntry, n)
	copy(out, t.entries[:n])
	return out
}
