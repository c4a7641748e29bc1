// Package app provides the orchestration layer for ouiwatch.
//
// # Overview
//
// This package wires configuration, the detector client, the shared store,
// and the dashboard together. It is the composition root: Setup builds the
// pieces and Run drives them until the operator quits.
//
// # Components
//
//   - app.go: Setup, Run, and the Services bundle shared with headless commands
//   - scheduler.go: one refresh loop per resource with its own period
//   - actions.go: operator-initiated mutations and the refreshes they trigger
//   - logging.go: file logger setup
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ouiwatch config
//	       ├─────> detector.NewClient() Create HTTP client
//	       ├─────> monitor.Store{}      Shared state container
//	       ├─────> Scheduler.Run()      Periodic refresh loops
//	       └─────> ui program           Dashboard (blocks)
//
//	Scheduler loops (independent):
//	┌─────────────────────────────────────────┐
//	│ devices  every 2s  (skipped when paused)│
//	│ status   every 2s                       │
//	│ lists    every 30s                      │
//	│ config   every 30s                      │
//	│  └─> store updated, OnUpdate -> UI      │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Fatal errors (returned from Run): unreadable configuration, an invalid
// service address, or a log file that cannot be opened.
//
// Everything else is recoverable. A failed refresh or mutation is logged,
// shown to the operator as a notice, and never stops another loop. The
// next tick simply tries again.
//
// # Refresh After Mutations
//
// Successful mutations refresh the resource they affect right away: device
// changes refresh the log, list changes refresh membership, and applying
// scan settings refreshes status and configuration. Settings that restart
// the remote scan process also schedule a full reload, which resets the
// store and refetches everything.
package app
