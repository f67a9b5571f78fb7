package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveSession stores the device session, replacing any previous one. Only a
// single session row exists per device.
func (s *Store) SaveSession(ctx context.Context, session Session) error {
	if strings.TrimSpace(session.UserID) == "" && strings.TrimSpace(session.Email) == "" {
		return errors.New("save session: user id or email required")
	}
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO session (slot, user_id, username, email, token, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			user_id=excluded.user_id,
			username=excluded.username,
			email=excluded.email,
			token=excluded.token,
			updated_at=excluded.updated_at`,
		session.UserID, session.Username, session.Email, session.Token,
		storeTime(session.UpdatedAt),
	)
}

// CurrentSession returns the device session, or nil when none exists.
func (s *Store) CurrentSession(ctx context.Context) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, token, updated_at FROM session WHERE slot = 1`)

	var session Session
	var updatedAt string
	err := row.Scan(&session.UserID, &session.Username, &session.Email, &session.Token, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.UpdatedAt = parseStoredTime(updatedAt)
	return &session, nil
}

// ClearCredential drops the stored token while keeping profile display data,
// implementing soft logout. A missing session row is not an error.
func (s *Store) ClearCredential(ctx context.Context) error {
	return s.execWithoutResultRetry(ctx,
		`UPDATE session SET token = '', updated_at = ? WHERE slot = 1`,
		storeTime(time.Now()),
	)
}
