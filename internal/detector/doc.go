// Package detector is the HTTP client for the Wi-Fi detection service.
//
// Every endpoint answers JSON. Reads decode straight into the types in
// types.go; writes are checked for a "status": "success" envelope and
// surface anything else as an *APIError carrying the service's message.
// Non-2xx answers without a usable body become a *StatusError.
//
// UserMessage picks the text the dashboard shows for a failed call, so
// callers never format transport errors for the operator themselves.
//
// Probe is the restart liveness check. It bypasses caches and only looks
// at the status code.
package detector
