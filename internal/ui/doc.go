// Package ui provides the terminal dashboard for ouiwatch.
//
// # Architecture Overview
//
// The dashboard is a Bubble Tea program. It never talks to the detection
// service itself: a scheduler in package app polls the service into a
// monitor.Store, and the model re-reads the store on a short tick or when
// the scheduler reports an update. Operator actions go through a Controller,
// which performs the request, posts a notice, and triggers the refresh that
// the mutation affects.
//
// # Views
//
//   - Devices: the device log in a scrolling viewport. A repaint happens only
//     when the store reports the log changed. A viewport resting at the
//     bottom follows new entries; any other position is kept as it was.
//   - Lists: active and inactive device lists, toggled optimistically.
//   - Settings: interface, capture time, bands and channels, plus reset and
//     the restart workflow.
//
// # Refresh Triggers
//
// Besides the scheduler's own periods, the model asks for an immediate
// device refresh when the terminal regains focus, when the process resumes
// from suspend, and when the operator returns to the Devices tab.
//
// # Key Bindings
//
//   - 1/2/3 or tab: switch views
//   - j/k, g/G, ctrl+d/u: move
//   - p: pause or resume monitoring
//   - a/o/x/i: add device, add manufacturer, remove, ignore
//   - space: toggle list, band or channel
//   - ?: help, T: cycle theme, q or ctrl+c: quit
package ui
