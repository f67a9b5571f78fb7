// Package api implements the HTTP client for the remote letter-extraction
// service.
//
// All authenticated calls take an explicit Credential; nothing in this
// package reads ambient session state. Two HTTP clients with different
// deadlines are used: a short one for JSON endpoints and polls, and a longer
// one for raw image transfers whose payload size varies.
package api
