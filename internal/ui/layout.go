package ui

import "time"

// LayoutCompactWidth is the terminal width below which the header drops
// secondary fields.
const LayoutCompactWidth = 100

// DefaultUIInterval is how often the model re-reads the store and expires
// notices. Data is fetched by the scheduler, not by the UI.
const DefaultUIInterval = 250 * time.Millisecond

// Tab is one of the top-level views.
type Tab int

const (
	TabDevices Tab = iota
	TabLists
	TabSettings
)

var tabNames = []string{"Devices", "Lists", "Settings"}

func (t Tab) String() string {
	if int(t) < len(tabNames) && t >= 0 {
		return tabNames[t]
	}
	return "Unknown"
}
