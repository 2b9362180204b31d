package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/store"
	"github.com/roach88/szerviz/internal/testutil"
)

var testEpoch = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	m        *Manager
	store    *flakyStore
	clock    *testutil.FakeClock
	listener *testutil.RecordingListener
	path     string
}

// flakyStore wraps a real store and fails saves on demand.
type flakyStore struct {
	*store.Store
	failSaves bool
	saves     int
}

var errDiskFull = errors.New("disk full")

func (s *flakyStore) Save(ctx context.Context, snap model.Snapshot) error {
	if s.failSaves {
		return errDiskFull
	}
	s.saves++
	return s.Store.Save(ctx, snap)
}

func (s *flakyStore) SaveExport(ctx context.Context, snap model.Snapshot, e store.ExportEntry) error {
	if s.failSaves {
		return errDiskFull
	}
	s.saves++
	return s.Store.SaveExport(ctx, snap, e)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "szerviz.db")
	return openFixture(t, path, opts...)
}

func openFixture(t *testing.T, path string, opts ...Option) *fixture {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		store:    &flakyStore{Store: st},
		clock:    testutil.NewFakeClock(testEpoch),
		listener: &testutil.RecordingListener{},
		path:     path,
	}
	base := []Option{
		WithIDGenerator(SequenceGenerator("id")),
		WithClock(f.clock.Now),
		WithListener(f.listener),
	}
	f.m, err = New(context.Background(), f.store, append(base, opts...)...)
	require.NoError(t, err)
	return f
}

// onboarded returns a fixture with shop settings in place.
func onboarded(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := newFixture(t, opts...)
	_, err := f.m.Onboard(context.Background(), "Teszt Szerviz", "")
	require.NoError(t, err)
	return f
}

func intake(name, plate string) model.Intake {
	return model.Intake{
		Name:         name,
		LicensePlate: plate,
		Phone:        "+36 30 123 4567",
		GDPRAccepted: true,
	}
}

func (f *fixture) create(t *testing.T, name, plate string) model.ClientRecord {
	t.Helper()
	rec, err := f.m.CreateRecord(context.Background(), intake(name, plate))
	require.NoError(t, err)
	return rec
}
