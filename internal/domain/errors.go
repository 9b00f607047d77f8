package domain

import "errors"

// Error taxonomy shared by the query service and the monitor. Callers
// classify failures with errors.Is.
var (
	// ErrMissingParameter marks a required query input that was absent.
	// Surfaced to API callers as a client error and never retried.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrUpstreamFetch marks a network, status or decode failure talking to
	// the outage data source.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrNotification marks a delivery failure in a Notifier.
	ErrNotification = errors.New("notification failed")

	// ErrStateIO marks an unreadable or unwritable monitor state.
	ErrStateIO = errors.New("state io failed")
)
