package store

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/szerviz/internal/model"
)

func TestLoad_EmptyDatabaseUsesDefaults(t *testing.T) {
	s := createTestStore(t)

	snap, report, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.Settings, "no settings means onboarding is required")
	assert.NotNil(t, snap.Records)
	assert.Empty(t, snap.Records)
	assert.Equal(t, StarterTemplates(), snap.Templates)
	assert.ElementsMatch(t, []string{KeySettings, KeyRecords, KeyTemplates}, report.Missing)
	assert.Empty(t, report.Corrupt)
	assert.False(t, report.Clean())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	settings := NewSettings("Kovács Autó", "")
	settings.ClientCountSinceBackup = 3
	snap := model.Snapshot{
		Settings: &settings,
		Records: []model.ClientRecord{
			createTestRecord("r2", "BBB-222", 2000),
			createTestRecord("r1", "AAA-111", 1000),
		},
		Templates: []string{"Olajcsere esedékes"},
	}
	snap.Records[0].Photos[0].RemoteURL = "https://img/r2.jpg"
	snap.Records[0].Photos[0].Status = model.PhotoUploaded

	require.NoError(t, s.Save(ctx, snap))

	loaded, report, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, snap, loaded)
}

func TestSave_NilSettingsRemovesRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	settings := NewSettings("Shop", "#000000")
	require.NoError(t, s.Save(ctx, model.Snapshot{Settings: &settings}))
	require.NoError(t, s.Save(ctx, model.Snapshot{}))

	loaded, report, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded.Settings)
	assert.Contains(t, report.Missing, KeySettings)
}

func TestSave_EmptyTemplatesStayEmpty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, model.Snapshot{Templates: []string{}}))

	loaded, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, loaded.Templates)
}

func TestSave_NilPhotosStoredAsArray(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("r1", "AAA-111", 1)
	rec.Photos = nil
	require.NoError(t, s.Save(ctx, model.Snapshot{Records: []model.ClientRecord{rec}}))

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT value FROM blobs WHERE key = ?", KeyRecords).Scan(&raw))
	assert.Contains(t, raw, `"photos":[]`)
}

func TestLoad_CorruptKeyFallsBackIndependently(t *testing.T) {
	var logs bytes.Buffer
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	putRaw(t, s, KeySettings, `{"shopName":"Shop","themeColor":"#fff","texture":"none"}`)
	putRaw(t, s, KeyRecords, `[{"id":`)
	putRaw(t, s, KeyTemplates, `["a","b"]`)

	snap, report, err := s.Load(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snap.Settings)
	assert.Equal(t, "Shop", snap.Settings.ShopName)
	assert.Empty(t, snap.Records)
	assert.Equal(t, []string{"a", "b"}, snap.Templates)
	assert.Equal(t, []string{KeyRecords}, report.Corrupt)
	assert.Empty(t, report.Missing)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "key=records")
}

func TestLoad_CorruptTemplatesUseStarterSet(t *testing.T) {
	s := createTestStore(t)
	putRaw(t, s, KeyTemplates, `{"not":"a list"}`)

	snap, report, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StarterTemplates(), snap.Templates)
	assert.Equal(t, []string{KeyTemplates}, report.Corrupt)
}

func TestLoad_LegacyPhotoKeys(t *testing.T) {
	s := createTestStore(t)
	putRaw(t, s, KeyRecords, `[{"id":"r1","name":"A","licensePlate":"AAA-111","phone":"+3630123456",
		"photos":[{"id":"p1","url":"blob:1","cloudUrl":"https://img/1","status":"UPLOADED"}],
		"status":"ACTIVE","createdAt":1,"isUrgent":false,"gdprAccepted":true}]`)

	snap, _, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "blob:1", snap.Records[0].Photos[0].LocalURL)
	assert.Equal(t, "https://img/1", snap.Records[0].Photos[0].RemoteURL)
}

func TestSave_FailedWriteLeavesPreviousSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := model.Snapshot{
		Records:   []model.ClientRecord{createTestRecord("r1", "AAA-111", 1)},
		Templates: []string{"old"},
	}
	require.NoError(t, s.Save(ctx, first))

	// Reject any write of the templates key, which is written after records.
	_, err := s.db.Exec(`
		CREATE TRIGGER reject_templates_insert BEFORE INSERT ON blobs
		WHEN NEW.key = 'templates' BEGIN SELECT RAISE(ABORT, 'rejected'); END;
		CREATE TRIGGER reject_templates_update BEFORE UPDATE ON blobs
		WHEN NEW.key = 'templates' BEGIN SELECT RAISE(ABORT, 'rejected'); END;
	`)
	require.NoError(t, err)

	second := model.Snapshot{
		Records: []model.ClientRecord{
			createTestRecord("r2", "BBB-222", 2),
			createTestRecord("r1", "AAA-111", 1),
		},
		Templates: []string{"new"},
	}
	require.Error(t, s.Save(ctx, second))

	loaded, _, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Records, loaded.Records, "records must not be partially written")
	assert.Equal(t, []string{"old"}, loaded.Templates)
}

func TestSaveExport_RecordsHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	settings := NewSettings("Shop", "")
	snap := model.Snapshot{Settings: &settings, Records: []model.ClientRecord{createTestRecord("r1", "AAA-111", 1)}}

	at := time.UnixMilli(1718000000000)
	require.NoError(t, s.SaveExport(ctx, snap, ExportEntry{FileName: "szerviz_mentes_2024-06-10.json", RecordCount: 1, CreatedAt: at}))
	require.NoError(t, s.SaveExport(ctx, snap, ExportEntry{FileName: "szerviz_mentes_2024-06-11.json", RecordCount: 1, CreatedAt: at.Add(24 * time.Hour)}))

	history, err := s.ExportHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "szerviz_mentes_2024-06-11.json", history[0].FileName)
	assert.Equal(t, at.UnixMilli(), history[1].CreatedAt.UnixMilli())

	limited, err := s.ExportHistory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestExportHistory_Empty(t *testing.T) {
	s := createTestStore(t)

	history, err := s.ExportHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, []string{
		"Olajcsere esedékes",
		"Fékbetét kopott, csere javasolt",
		"Műszaki vizsga hamarosan lejár",
		"Akkumulátor gyenge, cserélni kell",
	}, StarterTemplates())

	s := NewSettings("Shop", "")
	assert.Equal(t, "#f97316", s.ThemeColor)
	assert.Equal(t, model.TextureNone, s.Texture)
	assert.Zero(t, s.ClientCountSinceBackup)
	assert.False(t, s.IsPro)

	_, err := parseDefaults([]byte("settings:\n  texture: velvet\n"))
	assert.Error(t, err)
}

func TestStarterTemplates_ReturnsCopy(t *testing.T) {
	a := StarterTemplates()
	a[0] = "changed"
	assert.NotEqual(t, "changed", StarterTemplates()[0])
}
