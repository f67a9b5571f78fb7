// Package reconcile keeps locally stored non-terminal scan records
// eventually consistent with the server.
//
// The manager runs a sweep on a fixed interval: every pending or processing
// record is re-fetched by id and the snapshot merged through the store, which
// enforces the forward-only lifecycle. Sweeps are best-effort: a fetch
// failure skips that record until the next interval and is never surfaced to
// the caller, so reconciliation only ever improves local state.
package reconcile
