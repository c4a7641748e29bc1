// Package settings validates operator input for the detector's settings
// and device forms, and drives the restart/reconnect cycle.
//
// Validation failures are *ValidationError values whose UserMessage is safe
// to show as a notice. A Restarter moves through idle, restarting,
// reconnecting and then either succeeded or gave up; Terminal tells the
// last two apart from the in-flight states.
package settings
