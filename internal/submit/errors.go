package submit

import (
	"errors"
	"fmt"

	"postscan/internal/api"
)

// Kind classifies a submission failure.
type Kind int

const (
	// KindConnectivity means no network path to the service; retry later.
	KindConnectivity Kind = iota
	// KindTimeout means a request exceeded its deadline; the whole sequence
	// may be retried from the start, never resumed mid-way.
	KindTimeout
	// KindUnauthorized means the credential was rejected; re-authenticate.
	KindUnauthorized
	// KindValidation means the service rejected the request content (422);
	// not retryable as-is.
	KindValidation
	// KindSlotRequest means the upload slot request failed.
	KindSlotRequest
	// KindTransfer means the byte transfer failed. Slots are single-use, so
	// retry restarts at the slot request.
	KindTransfer
	// KindTrigger means the processing trigger failed.
	KindTrigger
	// KindLocal means the image could not be read before any remote call.
	KindLocal
)

var kindNames = map[Kind]string{
	KindConnectivity: "connectivity",
	KindTimeout:      "timeout",
	KindUnauthorized: "unauthorized",
	KindValidation:   "validation",
	KindSlotRequest:  "slot_request",
	KindTransfer:     "transfer",
	KindTrigger:      "trigger",
	KindLocal:        "local",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a tagged submission failure.
type Error struct {
	Kind       Kind
	Step       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("submit %s (%s, status %d): %v", e.Step, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submit %s (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, with ok=false when err is not a
// submission error.
func KindOf(err error) (Kind, bool) {
	var submitErr *Error
	if errors.As(err, &submitErr) {
		return submitErr.Kind, true
	}
	return 0, false
}

// classify wraps a step failure, mapping transport and status conditions
// onto the error taxonomy. stepKind is used when no more specific kind
// applies.
func classify(step string, stepKind Kind, err error) *Error {
	kind := stepKind
	switch {
	case api.IsTimeout(err):
		kind = KindTimeout
	case api.IsConnectivity(err):
		kind = KindConnectivity
	case api.IsUnauthorized(err):
		kind = KindUnauthorized
	case api.IsValidation(err):
		kind = KindValidation
	}
	return &Error{Kind: kind, Step: step, StatusCode: api.StatusCodeOf(err), Err: err}
}
