// Package monitor holds the dashboard's application state.
//
// # Overview
//
// The detector service only answers polls, so every piece of state here is
// a full replacement of what the service last reported:
//
//   - Snapshot: the device log with set-semantics equality. Diff decides
//     whether a fresh fetch needs a repaint.
//   - Lists: the active/inactive partition of filter lists, with optimistic
//     toggles that the periodic lists refresh reconciles.
//   - Notices: the single transient message shown to the operator.
//   - Store: the shared, mutex-guarded container the scheduler writes and
//     the UI reads.
//
// # Concurrency
//
// Polls for the same resource may overlap. Each Store method is one atomic
// step, so whichever response is applied last wins and the list partition
// holds under any interleaving.
//
// # Log Lines
//
// ParseLine tokenizes lines like
//
//	[2024-05-01 10:00] | 00:11:22:33:44:55 | Phone | Ch: 6 | List: home
//
// and reports ok=false for malformed input. Callers skip those lines.
package monitor
