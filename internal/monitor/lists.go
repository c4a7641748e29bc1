package monitor

import (
	"slices"
	"strings"
)

// Lists tracks which filter lists are active. Every known name is in exactly
// one of the two sets. The zero value is empty and ready to use.
type Lists struct {
	active    map[string]struct{}
	inactive  map[string]struct{}
	available []string
}

// Reconcile replaces local membership with the service's partition. A name
// reported in both sets is treated as active.
func (l *Lists) Reconcile(active, inactive []string) {
	l.active = make(map[string]struct{}, len(active))
	l.inactive = make(map[string]struct{}, len(inactive))
	for _, name := range active {
		l.active[name] = struct{}{}
	}
	for _, name := range inactive {
		if _, ok := l.active[name]; !ok {
			l.inactive[name] = struct{}{}
		}
	}
}

// Toggle flips name between the two sets and returns its new membership.
// known is false when the list is not tracked; nothing changes then.
func (l *Lists) Toggle(name string) (active, known bool) {
	l.ensure()
	if _, ok := l.active[name]; ok {
		delete(l.active, name)
		l.inactive[name] = struct{}{}
		return false, true
	}
	if _, ok := l.inactive[name]; ok {
		delete(l.inactive, name)
		l.active[name] = struct{}{}
		return true, true
	}
	return false, false
}

// Add records a newly created list. New lists start inactive and become
// selectable for new devices.
func (l *Lists) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	l.ensure()
	if !l.Known(name) {
		l.inactive[name] = struct{}{}
	}
	if !slices.Contains(l.available, name) {
		l.available = append(l.available, name)
	}
}

// SetAvailable replaces the names offered when adding a device.
func (l *Lists) SetAvailable(names []string) {
	l.available = slices.Clone(names)
}

// Known reports whether name is tracked in either set.
func (l *Lists) Known(name string) bool {
	if _, ok := l.active[name]; ok {
		return true
	}
	_, ok := l.inactive[name]
	return ok
}

// IsActive reports whether name is in the active set.
func (l *Lists) IsActive(name string) bool {
	_, ok := l.active[name]
	return ok
}

// Active returns the active names sorted.
func (l *Lists) Active() []string { return sortedKeys(l.active) }

// Inactive returns the inactive names sorted.
func (l *Lists) Inactive() []string { return sortedKeys(l.inactive) }

// Available returns the names offered when adding a device.
func (l *Lists) Available() []string { return slices.Clone(l.available) }

func (l *Lists) ensure() {
	if l.active == nil {
		l.active = make(map[string]struct{})
	}
	if l.inactive == nil {
		l.inactive = make(map[string]struct{})
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
