package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a scan record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusProcessed,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// lifecycleOrder positions each status along the forward-only lifecycle.
// Both terminal states share the final position; they are mutually exclusive
// rather than ordered relative to each other.
var lifecycleOrder = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusProcessed:  2,
	StatusFailed:     2,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// StatusFromServer maps a server status string onto the local vocabulary.
// The server reports "completed" for what the client calls processed, and
// unrecognized values default to pending so vocabulary additions on the
// server never break the client.
func StatusFromServer(value string) Status {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "completed" {
		return StatusProcessed
	}
	if status, ok := ParseStatus(normalized); ok {
		return status
	}
	return StatusPending
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Active reports whether the status still awaits server-side resolution.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// Record represents one submitted letter scan persisted in SQLite.
//
// ID is assigned by the server at processing-trigger time and is the primary
// key; the client never generates identifiers. Extracted fields are empty
// until the record reaches StatusProcessed.
type Record struct {
	ID              string
	UserID          string
	ImageKey        string
	ImageURL        string
	ImagePath       string
	Status          Status
	SenderName      string
	SenderAddress   string
	SenderPincode   string
	ReceiverName    string
	ReceiverAddress string
	ReceiverPincode string
	SortingCenter   string
	RawPayload      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Merge applies a server snapshot onto the record, honoring the forward-only
// lifecycle: a snapshot that would move the status backward, or swap one
// terminal state for the other, leaves the record untouched. Returns true
// when any field changed.
func (r *Record) Merge(update Record) bool {
	current, next := lifecycleOrder[r.Status], lifecycleOrder[update.Status]
	if next < current {
		return false
	}
	if r.Status.Terminal() && update.Status != r.Status {
		return false
	}

	changed := false
	assign := func(dst *string, src string) {
		if src != "" && *dst != src {
			*dst = src
			changed = true
		}
	}

	if update.Status != r.Status {
		r.Status = update.Status
		changed = true
	}
	assign(&r.UserID, update.UserID)
	assign(&r.ImageKey, update.ImageKey)
	assign(&r.ImageURL, update.ImageURL)
	assign(&r.ImagePath, update.ImagePath)
	assign(&r.SenderName, update.SenderName)
	assign(&r.SenderAddress, update.SenderAddress)
	assign(&r.SenderPincode, update.SenderPincode)
	assign(&r.ReceiverName, update.ReceiverName)
	assign(&r.ReceiverAddress, update.ReceiverAddress)
	assign(&r.ReceiverPincode, update.ReceiverPincode)
	assign(&r.SortingCenter, update.SortingCenter)
	assign(&r.RawPayload, update.RawPayload)
	if !update.UpdatedAt.IsZero() && !update.UpdatedAt.Equal(r.UpdatedAt) {
		r.UpdatedAt = update.UpdatedAt
		changed = true
	}
	return changed
}

// Session holds the single device session: profile display data plus the
// bearer credential. Token is empty after logout; the row itself survives so
// the profile can still be shown.
type Session struct {
	UserID    string
	Username  string
	Email     string
	Token     string
	UpdatedAt time.Time
}

// LoggedIn reports whether a usable credential is present.
func (s *Session) LoggedIn() bool {
	return s != nil && strings.TrimSpace(s.Token) != ""
}
