package lifecycle

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/szerviz/internal/model"
)

func TestExportSnapshot(t *testing.T) {
	f := onboarded(t)
	ctx := context.Background()
	f.create(t, "A", "AAA111")
	f.create(t, "B", "BBB222")

	exp, err := f.m.ExportSnapshot(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, "szerviz_mentes_2024-06-10.json", exp.FileName)
	assert.Equal(t, 2, exp.Count)

	var decoded []model.ClientRecord
	require.NoError(t, json.Unmarshal(exp.Data, &decoded))
	assert.Equal(t, f.m.Records(), decoded)

	history, err := f.store.ExportHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, exp.FileName, history[0].FileName)
}

func TestExportSnapshot_Prefix(t *testing.T) {
	f := onboarded(t, WithExportPrefix("garage"))
	exp, err := f.m.ExportSnapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "garage_2024-06-10.json", exp.FileName)
	assert.Equal(t, "[]", string(exp.Data))
}

func TestExportSnapshot_FailureKeepsCounter(t *testing.T) {
	f := onboarded(t)
	f.create(t, "A", "AAA111")

	f.store.failSaves = true
	_, err := f.m.ExportSnapshot(context.Background(), nil)
	require.Error(t, err)

	s, _ := f.m.Settings()
	assert.Equal(t, 1, s.ClientCountSinceBackup)
}

func TestExportSnapshot_WriteFailureKeepsCounterAndHistory(t *testing.T) {
	f := onboarded(t)
	ctx := context.Background()
	f.create(t, "A", "AAA111")
	f.create(t, "B", "BBB222")

	_, err := f.m.ExportSnapshot(ctx, func(Export) error { return errDiskFull })
	require.ErrorIs(t, err, errDiskFull)

	s, _ := f.m.Settings()
	assert.Equal(t, 2, s.ClientCountSinceBackup)
	history, err := f.store.ExportHistory(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	var written Export
	exp, err := f.m.ExportSnapshot(ctx, func(e Export) error {
		written = e
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, exp, written)
	s, _ = f.m.Settings()
	assert.Equal(t, 0, s.ClientCountSinceBackup)
}

func TestImportSnapshot_ReplaceRoundTrip(t *testing.T) {
	f := onboarded(t)
	ctx := context.Background()
	a := f.create(t, "A", "AAA111")
	f.create(t, "B", "BBB222")
	_, err := f.m.AddPhotos(ctx, a.ID, []PhotoInput{{LocalURL: "/1.jpg", Source: model.SourceCamera}})
	require.NoError(t, err)
	_, err = f.m.SetQuote(ctx, a.ID, model.Quote{Labor: 100, Parts: 50, UseBreakdown: true})
	require.NoError(t, err)
	_, err = f.m.MarkFinished(ctx, a.ID)
	require.NoError(t, err)

	original := f.m.Records()
	exp, err := f.m.ExportSnapshot(ctx, nil)
	require.NoError(t, err)

	other := onboarded(t)
	other.create(t, "Z", "ZZZ999")
	res, err := other.m.ImportSnapshot(ctx, exp.Data, ImportReplace)
	require.NoError(t, err)

	assert.Equal(t, ImportResult{Mode: ImportReplace, Added: 2, Total: 2}, res)
	assert.Equal(t, original, other.m.Records())
}

func TestImportSnapshot_MergeNeverDuplicates(t *testing.T) {
	f := onboarded(t)
	ctx := context.Background()
	a := f.create(t, "A", "AAA111")

	existing, _ := f.m.Get(a.ID)
	conflicting := existing
	conflicting.Name = "Imported A"
	fresh := model.ClientRecord{
		ID: "x-1", Name: "X", LicensePlate: "XXX-111", Phone: "+3630111111",
		Photos: []model.PhotoEvidence{}, Status: model.StatusActive, CreatedAt: 5, GDPRAccepted: true,
	}
	data, err := json.Marshal([]model.ClientRecord{conflicting, fresh, fresh})
	require.NoError(t, err)

	res, err := f.m.ImportSnapshot(ctx, data, ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Skipped)

	counts := map[string]int{}
	for _, r := range f.m.Records() {
		counts[r.ID]++
	}
	assert.Equal(t, map[string]int{a.ID: 1, "x-1": 1}, counts)

	got, _ := f.m.Get(a.ID)
	assert.Equal(t, "A", got.Name, "existing record wins")
}

func TestImportSnapshot_InvalidLeavesState(t *testing.T) {
	f := onboarded(t)
	ctx := context.Background()
	f.create(t, "A", "AAA111")
	before := f.m.Snapshot()

	for _, data := range []string{`{"id":"x"}`, `[{"id":"x","status":"LOST"}]`, `garbage`} {
		_, err := f.m.ImportSnapshot(ctx, []byte(data), ImportReplace)
		require.Error(t, err)
		assert.True(t, IsImportSchema(err), "data %s: %v", data, err)
	}
	assert.Equal(t, before, f.m.Snapshot())
}

func TestImportSnapshot_ReplaceClosesMissingOpenRecord(t *testing.T) {
	f := onboarded(t)
	rec := f.create(t, "A", "AAA111")
	_, err := f.m.Open(rec.ID)
	require.NoError(t, err)

	_, err = f.m.ImportSnapshot(context.Background(), []byte(`[]`), ImportReplace)
	require.NoError(t, err)

	assert.Empty(t, f.m.Records())
	assert.Equal(t, []string{rec.ID}, f.listener.ClosedSignals())
}

func TestParseImportMode(t *testing.T) {
	m, err := ParseImportMode("merge")
	require.NoError(t, err)
	assert.Equal(t, ImportMerge, m)

	m, err = ParseImportMode(" REPLACE ")
	require.NoError(t, err)
	assert.Equal(t, ImportReplace, m)

	_, err = ParseImportMode("append")
	assert.True(t, IsInvalidInput(err))
}
