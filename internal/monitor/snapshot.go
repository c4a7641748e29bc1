package monitor

import "slices"

// Snapshot is one full device log as returned by the service. Equality uses
// set semantics; Lines keeps the server order for rendering.
type Snapshot struct {
	lines []string
	set   map[string]struct{}
}

// NewSnapshot builds a Snapshot from raw lines. Textually identical lines
// collapse to one member.
func NewSnapshot(lines []string) Snapshot {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return Snapshot{lines: slices.Clone(lines), set: set}
}

// Len is the number of distinct lines.
func (s Snapshot) Len() int { return len(s.set) }

// Entries parses the lines, skipping malformed ones.
func (s Snapshot) Entries() []Entry { return ParseLines(s.lines) }

// Contains reports whether line is a member.
func (s Snapshot) Contains(line string) bool {
	_, ok := s.set[line]
	return ok
}

// Differs reports whether next has different membership than s.
func (s Snapshot) Differs(next Snapshot) bool {
	if len(s.set) != len(next.set) {
		return true
	}
	for line := range next.set {
		if _, ok := s.set[line]; !ok {
			return true
		}
	}
	return false
}

// Diff builds the snapshot for a fresh fetch and reports whether it differs
// from prev.
func Diff(prev Snapshot, lines []string) (Snapshot, bool) {
	next := NewSnapshot(lines)
	return next, prev.Differs(next)
}
