package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"postscan/internal/store"
)

// Account is the response to a successful registration.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UploadSlot is a one-time upload destination issued by the service. The
// upload URL points at object storage and expires server-side; the file key
// identifies the uploaded object in the processing trigger.
type UploadSlot struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
}

// Snapshot is the wire representation of a scan record.
type Snapshot struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	ImageS3Key    string `json:"image_s3_key"`
	ImageURL      string `json:"image_url"`
	Status        string `json:"status"`
	SenderName    string `json:"sender_name"`
	SenderAddress string `json:"sender_address"`
	SenderPincode string `json:"sender_pincode"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverAddr  string `json:"receiver_address"`
	ReceiverPin   string `json:"receiver_pincode"`
	SortingCenter string `json:"assigned_sorting_center"`
	RawAIResponse string `json:"raw_ai_response"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ToRecord converts a wire snapshot into the local record shape. The full
// snapshot JSON is retained as the record's raw payload for diagnostics.
func (s Snapshot) ToRecord() (store.Record, error) {
	if strings.TrimSpace(s.ID) == "" {
		return store.Record{}, fmt.Errorf("snapshot missing id")
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return store.Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	return store.Record{
		ID:              s.ID,
		UserID:          s.UserID,
		ImageKey:        s.ImageS3Key,
		ImageURL:        s.ImageURL,
		Status:          store.StatusFromServer(s.Status),
		SenderName:      s.SenderName,
		SenderAddress:   s.SenderAddress,
		SenderPincode:   s.SenderPincode,
		ReceiverName:    s.ReceiverName,
		ReceiverAddress: s.ReceiverAddr,
		ReceiverPincode: s.ReceiverPin,
		SortingCenter:   s.SortingCenter,
		RawPayload:      string(raw),
		CreatedAt:       parseWireTime(s.CreatedAt),
		UpdatedAt:       parseWireTime(s.UpdatedAt),
	}, nil
}

// parseWireTime accepts the timestamp shapes the service has been observed
// to emit. A value that parses as none of them yields the zero time rather
// than an error; timestamps are advisory.
func parseWireTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
