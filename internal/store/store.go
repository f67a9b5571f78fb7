package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"postscan/internal/config"
)

// Store manages scan persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the scan database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

const scanColumns = `id, user_id, image_key, image_url, image_path, status,
	sender_name, sender_address, sender_pincode,
	receiver_name, receiver_address, receiver_pincode,
	sorting_center, raw_payload, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var status, createdAt, updatedAt string
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.ImageKey, &rec.ImageURL, &rec.ImagePath, &status,
		&rec.SenderName, &rec.SenderAddress, &rec.SenderPincode,
		&rec.ReceiverName, &rec.ReceiverAddress, &rec.ReceiverPincode,
		&rec.SortingCenter, &rec.RawPayload, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parsed, ok := ParseStatus(status); ok {
		rec.Status = parsed
	} else {
		rec.Status = StatusPending
	}
	rec.CreatedAt = parseStoredTime(createdAt)
	rec.UpdatedAt = parseStoredTime(updatedAt)
	return &rec, nil
}

func parseStoredTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func storeTime(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

// SaveScan inserts or replaces a scan record wholesale.
func (s *Store) SaveScan(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("save scan: nil record")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("save scan: record id required")
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO scans (`+scanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id=excluded.user_id,
			image_key=excluded.image_key,
			image_url=excluded.image_url,
			image_path=excluded.image_path,
			status=excluded.status,
			sender_name=excluded.sender_name,
			sender_address=excluded.sender_address,
			sender_pincode=excluded.sender_pincode,
			receiver_name=excluded.receiver_name,
			receiver_address=excluded.receiver_address,
			receiver_pincode=excluded.receiver_pincode,
			sorting_center=excluded.sorting_center,
			raw_payload=excluded.raw_payload,
			created_at=excluded.created_at,
			updated_at=excluded.updated_at`,
		rec.ID, rec.UserID, rec.ImageKey, rec.ImageURL, rec.ImagePath, string(rec.Status),
		rec.SenderName, rec.SenderAddress, rec.SenderPincode,
		rec.ReceiverName, rec.ReceiverAddress, rec.ReceiverPincode,
		rec.SortingCenter, rec.RawPayload, storeTime(rec.CreatedAt), storeTime(rec.UpdatedAt),
	)
}

// GetScan fetches a scan record by identifier. Returns nil when absent.
func (s *Store) GetScan(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return rec, nil
}

// ListScans returns all scan records ordered by creation time descending.
func (s *Store) ListScans(ctx context.Context) ([]Record, error) {
	return s.queryScans(ctx, `SELECT `+scanColumns+` FROM scans ORDER BY created_at DESC, id DESC`)
}

// ActiveScans returns records still awaiting server-side resolution.
func (s *Store) ActiveScans(ctx context.Context) ([]Record, error) {
	return s.queryScans(ctx,
		`SELECT `+scanColumns+` FROM scans WHERE status IN (?, ?) ORDER BY created_at ASC, id ASC`,
		string(StatusPending), string(StatusProcessing),
	)
}

func (s *Store) queryScans(ctx context.Context, query string, args ...any) ([]Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return records, nil
}

// ApplySnapshot merges a server snapshot into the store. New records are
// inserted as-is; existing records go through Record.Merge so a terminal
// status never regresses. Returns true when the stored row changed.
func (s *Store) ApplySnapshot(ctx context.Context, snapshot Record) (bool, error) {
	if strings.TrimSpace(snapshot.ID) == "" {
		return false, errors.New("apply snapshot: record id required")
	}
	existing, err := s.GetScan(ctx, snapshot.ID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		if snapshot.Status == "" {
			snapshot.Status = StatusPending
		}
		if err := s.SaveScan(ctx, &snapshot); err != nil {
			return false, err
		}
		return true, nil
	}
	if !existing.Merge(snapshot) {
		return false, nil
	}
	if err := s.SaveScan(ctx, existing); err != nil {
		return false, err
	}
	return true, nil
}

// CountByStatus returns the number of scans per lifecycle status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM scans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		if parsed, ok := ParseStatus(status); ok {
			counts[parsed] += count
		} else {
			counts[StatusPending] += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
