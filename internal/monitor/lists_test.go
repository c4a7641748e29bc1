package monitor

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestLists_ReconcileThenOptimisticToggle(t *testing.T) {
	var l Lists
	l.Reconcile([]string{"home"}, []string{"guest"})

	if got := l.Active(); !reflect.DeepEqual(got, []string{"home"}) {
		t.Fatalf("Active = %v, want [home]", got)
	}
	if got := l.Inactive(); !reflect.DeepEqual(got, []string{"guest"}) {
		t.Fatalf("Inactive = %v, want [guest]", got)
	}

	active, known := l.Toggle("guest")
	if !known || !active {
		t.Fatalf("Toggle(guest) = %v, %v; want true, true", active, known)
	}
	if got := l.Active(); !reflect.DeepEqual(got, []string{"guest", "home"}) {
		t.Fatalf("Active = %v, want [guest home]", got)
	}
	if got := l.Inactive(); len(got) != 0 {
		t.Fatalf("Inactive = %v, want empty", got)
	}
}

func TestLists_ReconcileOverlapPrefersActive(t *testing.T) {
	var l Lists
	l.Reconcile([]string{"a"}, []string{"a", "b"})
	if !l.IsActive("a") {
		t.Fatalf("a should be active")
	}
	if got := l.Inactive(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("Inactive = %v, want [b]", got)
	}
}

func TestLists_ToggleUnknownIsNoop(t *testing.T) {
	var l Lists
	l.Reconcile([]string{"a"}, nil)
	if _, known := l.Toggle("missing"); known {
		t.Fatalf("Toggle(missing) reported known")
	}
	if l.Known("missing") {
		t.Fatalf("Toggle should not add unknown names")
	}
}

func TestLists_AddStartsInactiveAndAvailable(t *testing.T) {
	var l Lists
	l.SetAvailable([]string{"home"})
	l.Add("office")
	l.Add("office")
	l.Add("  ")

	if l.IsActive("office") || !l.Known("office") {
		t.Fatalf("office should be known and inactive")
	}
	if got := l.Available(); !reflect.DeepEqual(got, []string{"home", "office"}) {
		t.Fatalf("Available = %v, want [home office]", got)
	}
}

func TestLists_PartitionHoldsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	names := []string{"a", "b", "c", "d", "e"}

	var l Lists
	l.Reconcile([]string{"a"}, []string{"b"})
	known := map[string]bool{"a": true, "b": true}

	for i := 0; i < 500; i++ {
		name := names[rng.Intn(len(names))]
		switch rng.Intn(3) {
		case 0:
			l.Toggle(name)
		case 1:
			l.Add(name)
			known[name] = true
		case 2:
			var active, inactive []string
			for n := range known {
				if rng.Intn(2) == 0 {
					active = append(active, n)
				} else {
					inactive = append(inactive, n)
				}
			}
			l.Reconcile(active, inactive)
		}

		seen := make(map[string]int)
		for _, n := range l.Active() {
			seen[n]++
		}
		for _, n := range l.Inactive() {
			seen[n]++
		}
		for n := range known {
			if seen[n] != 1 {
				t.Fatalf("step %d: %q appears in %d sets, want exactly 1", i, n, seen[n])
			}
		}
		if len(seen) != len(known) {
			t.Fatalf("step %d: tracked %d names, want %d", i, len(seen), len(known))
		}
	}
}
