// Package submit drives the three-step remote submission protocol: request
// an upload slot, transfer the image bytes, then trigger processing.
//
// The orchestrator is side-effect free with respect to local persistence: it
// returns the record the server created and leaves writing it to the caller,
// so a failure at any step leaves the store untouched. Failures come back as
// *Error values tagged with the step and failure kind so callers can choose
// user-facing copy per kind.
package submit
