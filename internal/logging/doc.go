// Package logging builds the slog loggers used across postscan.
//
// Two output formats are supported: a human-oriented console format for
// interactive use and line-delimited JSON for log files and machine
// consumption. Attr helpers keep call sites terse and consistent.
package logging
