package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"postscan/internal/api"
	"postscan/internal/logging"
	"postscan/internal/store"
)

// Client is the slice of the service API the poller depends on.
type Client interface {
	GetMail(ctx context.Context, cred api.Credential, id string) (api.Snapshot, error)
}

// CredentialSource returns the credential to use for the current sweep. It
// is consulted per sweep so a login or logout between intervals takes effect
// without restarting the manager.
type CredentialSource func(ctx context.Context) (api.Credential, error)

// Manager coordinates periodic reconciliation sweeps.
type Manager struct {
	store      *store.Store
	client     Client
	creds      CredentialSource
	logger     *slog.Logger
	interval   time.Duration
	onChange   func(changed int)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures optional manager behavior.
type Option func(*Manager)

// WithOnChange registers a callback fired after any sweep that changed at
// least one record, with the number of changed records.
func WithOnChange(fn func(changed int)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// NewManager constructs a reconciliation manager. A nil logger disables
// logging.
func NewManager(st *store.Store, client Client, creds CredentialSource, interval time.Duration, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		client:   client,
		creds:    creds,
		logger:   logging.WithComponent(logger, "reconcile"),
		interval: interval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins background sweeping. The first sweep runs immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("reconcile already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background sweeping and waits for the in-flight sweep to
// unwind. Results of fetches completing after Stop are discarded, not
// applied.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	changed, err := m.RunSweep(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("reconciliation sweep failed", logging.Error(err))
		return
	}
	if changed > 0 && m.onChange != nil {
		m.onChange(changed)
	}
}

// RunSweep reconciles every active record once and returns how many records
// changed. A missing credential makes the sweep a silent no-op. Per-record
// fetch failures are logged and skipped; they never fail the sweep.
func (m *Manager) RunSweep(ctx context.Context) (int, error) {
	cred, err := m.creds(ctx)
	if err != nil {
		return 0, err
	}
	if cred.Empty() {
		m.logger.Debug("no credential; skipping sweep")
		return 0, nil
	}

	active, err := m.store.ActiveScans(ctx)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	changed := 0
	for i := range active {
		rec := &active[i]
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		snapshot, err := m.client.GetMail(ctx, cred, rec.ID)
		if err != nil {
			m.logger.Debug("record fetch failed; will retry next sweep",
				logging.String("scan_id", rec.ID),
				logging.Error(err),
			)
			continue
		}

		// A fetch that raced Stop is discarded rather than applied.
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		update, err := snapshot.ToRecord()
		if err != nil {
			m.logger.Debug("record snapshot unusable",
				logging.String("scan_id", rec.ID),
				logging.Error(err),
			)
			continue
		}

		applied, err := m.store.ApplySnapshot(ctx, update)
		if err != nil {
			m.logger.Warn("apply snapshot failed",
				logging.String("scan_id", rec.ID),
				logging.Error(err),
			)
			continue
		}
		if applied {
			changed++
			m.logger.Info("record reconciled",
				logging.String("scan_id", rec.ID),
				logging.String("status", string(update.Status)),
			)
		}
	}

	if changed > 0 {
		m.logger.Info("sweep complete",
			logging.Int("active", len(active)),
			logging.Int("changed", changed),
		)
	}
	return changed, nil
}
