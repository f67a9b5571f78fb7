package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"postscan/internal/api"
	"postscan/internal/logging"
	"postscan/internal/store"
)

// Client is the slice of the service API the orchestrator depends on.
type Client interface {
	GenerateUploadURL(ctx context.Context, cred api.Credential) (api.UploadSlot, error)
	UploadImage(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error
	ProcessFile(ctx context.Context, cred api.Credential, fileKey string) (api.Snapshot, error)
}

// Orchestrator turns a local image into a submitted scan record.
type Orchestrator struct {
	client Client
	logger *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

// New constructs an orchestrator. A nil logger disables logging.
func New(client Client, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		logger: logging.WithComponent(logger, "submit"),
	}
}

// Submit drives the three-step protocol for the image at imagePath. On
// success it returns the server-created record with the local image path
// attached; the caller is responsible for persisting it. Only one submission
// may be in flight per orchestrator; a concurrent call fails immediately.
func (o *Orchestrator) Submit(ctx context.Context, imagePath string, cred api.Credential) (*store.Record, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, &Error{Kind: KindLocal, Step: "begin", Err: errors.New("another submission is already in flight")}
	}
	o.inFlight = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if cred.Empty() {
		return nil, &Error{Kind: KindUnauthorized, Step: "begin", Err: errors.New("no credential; log in first")}
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return nil, &Error{Kind: KindLocal, Step: "open image", Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &Error{Kind: KindLocal, Step: "stat image", Err: err}
	}
	if info.IsDir() {
		return nil, &Error{Kind: KindLocal, Step: "stat image", Err: fmt.Errorf("%s is a directory", imagePath)}
	}

	attempt := uuid.NewString()
	logger := o.logger.With(logging.String("attempt", attempt), logging.String("image", imagePath))

	// Step 1: request a one-time upload slot.
	slot, err := o.client.GenerateUploadURL(ctx, cred)
	if err != nil {
		logger.Warn("upload slot request failed", logging.Error(err))
		return nil, classify("request upload slot", KindSlotRequest, err)
	}
	logger.Debug("upload slot issued", logging.String("file_key", slot.FileKey))

	// Step 2: transfer the raw bytes. Slots are single-use, so a failure
	// here means the caller restarts from step 1.
	if err := o.client.UploadImage(ctx, slot.UploadURL, contentTypeFor(imagePath), file, info.Size()); err != nil {
		logger.Warn("image transfer failed", logging.Error(err), logging.String("file_key", slot.FileKey))
		return nil, classify("transfer bytes", KindTransfer, err)
	}
	logger.Debug("image transferred", logging.Int64("bytes", info.Size()))

	// Step 3: trigger processing. Only now does a record exist server-side.
	snapshot, err := o.client.ProcessFile(ctx, cred, slot.FileKey)
	if err != nil {
		logger.Warn("processing trigger failed", logging.Error(err), logging.String("file_key", slot.FileKey))
		return nil, classify("trigger processing", KindTrigger, err)
	}

	record, err := snapshot.ToRecord()
	if err != nil {
		return nil, &Error{Kind: KindTrigger, Step: "trigger processing", Err: err}
	}
	record.ImagePath = imagePath

	logger.Info("scan submitted",
		logging.String("scan_id", record.ID),
		logging.String("status", string(record.Status)),
	)
	return &record, nil
}

func contentTypeFor(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
