// Package store persists scan records, the device session, and free-form
// settings in a local SQLite database.
//
// The store is the single owner of all durable state. Writers go through its
// API; ApplySnapshot enforces the forward-only status lifecycle so server
// snapshots can be applied blindly without regressing terminal records.
package store
