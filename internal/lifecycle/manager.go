package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/store"
)

// DefaultBackupThreshold is the number of new records after which a
// backup reminder is raised.
const DefaultBackupThreshold = 5

// Store is the persistence the manager writes through.
// Implemented by *store.Store.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, store.LoadReport, error)
	Save(ctx context.Context, snap model.Snapshot) error
	SaveExport(ctx context.Context, snap model.Snapshot, entry store.ExportEntry) error
}

// Manager is the single owner of application state.
//
// Thread-safety: all methods are safe for concurrent use. Mutations are
// serialized; last write wins.
type Manager struct {
	mu     sync.Mutex
	store  Store
	state  model.Snapshot
	openID string
	report store.LoadReport

	ids             IDGenerator
	now             func() time.Time
	listener        Listener
	logger          *slog.Logger
	backupThreshold int
	exportPrefix    string
	licenseKey      string
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator sets the record and photo id source.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) { m.ids = g }
}

// WithClock sets the time source used for createdAt and weekly counts.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithListener sets the receiver of BackupDue and RecordClosed signals.
func WithListener(l Listener) Option {
	return func(m *Manager) { m.listener = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithBackupThreshold sets how many creations since the last export raise
// a backup reminder. Values below 1 keep the default.
func WithBackupThreshold(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.backupThreshold = n
		}
	}
}

// WithExportPrefix sets the export file name prefix.
func WithExportPrefix(prefix string) Option {
	return func(m *Manager) { m.exportPrefix = prefix }
}

// WithLicenseKey sets the key accepted by ActivatePro.
func WithLicenseKey(key string) Option {
	return func(m *Manager) { m.licenseKey = key }
}

// New loads the persisted state and returns a ready Manager. Unreadable
// collections fall back to their defaults; see LoadReport.
func New(ctx context.Context, st Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:           st,
		ids:             UUIDv7Generator{},
		now:             time.Now,
		listener:        NopListener{},
		logger:          slog.Default(),
		backupThreshold: DefaultBackupThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.listener == nil {
		m.listener = NopListener{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	snap, report, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	m.state = snap
	m.report = report

	m.logger.Debug("state loaded",
		"records", len(snap.Records),
		"templates", len(snap.Templates),
		"onboarded", snap.Settings != nil,
		"corrupt", report.Corrupt,
	)
	return m, nil
}

// LoadReport returns what happened to each collection during load.
func (m *Manager) LoadReport() store.LoadReport {
	return m.report
}

// Snapshot returns a deep copy of the current state.
func (m *Manager) Snapshot() model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// mutate applies fn to a copy of the state, persists the copy and swaps it
// in. When fn or the save fails the current state is left untouched.
func (m *Manager) mutate(ctx context.Context, fn func(next *model.Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutateLocked(ctx, fn)
}

func (m *Manager) mutateLocked(ctx context.Context, fn func(next *model.Snapshot) error) error {
	next := m.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := m.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	m.state = next
	return nil
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}

func indexOf(records []model.ClientRecord, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
