package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/szerviz/internal/backup"
	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/store"
)

// ImportMode selects how imported records combine with the current list.
type ImportMode string

const (
	// ImportMerge appends records whose id is not present yet.
	ImportMerge ImportMode = "MERGE"

	// ImportReplace discards the current list.
	ImportReplace ImportMode = "REPLACE"
)

// ParseImportMode accepts "merge" or "replace" in any case.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ImportMerge:
		return ImportMerge, nil
	case ImportReplace:
		return ImportReplace, nil
	}
	return "", invalidInput(fmt.Sprintf("unknown import mode %q (want merge or replace)", s), nil)
}

// Export is the result of ExportSnapshot.
type Export struct {
	Data     []byte
	FileName string
	Count    int
}

// ImportResult summarizes an import.
type ImportResult struct {
	Mode    ImportMode `json:"mode"`
	Added   int        `json:"added"`
	Skipped int        `json:"skipped"`
	Total   int        `json:"total"`
}

// ExportSnapshot renders every record as the backup JSON array, hands it
// to write and, only when write succeeds, resets the backup counter and
// records the export in the history. A nil write commits immediately.
// When write fails the state and history are left untouched.
func (m *Manager) ExportSnapshot(ctx context.Context, write func(Export) error) (Export, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := backup.Encode(m.state.Records)
	if err != nil {
		return Export{}, err
	}
	now := m.now()
	exp := Export{
		Data:     data,
		FileName: backup.FileName(m.exportPrefix, now),
		Count:    len(m.state.Records),
	}

	if write != nil {
		if err := write(exp); err != nil {
			return Export{}, fmt.Errorf("write backup: %w", err)
		}
	}

	next := m.state.Clone()
	if next.Settings != nil {
		next.Settings.ClientCountSinceBackup = 0
	}
	entry := store.ExportEntry{FileName: exp.FileName, RecordCount: exp.Count, CreatedAt: now}
	if err := m.store.SaveExport(ctx, next, entry); err != nil {
		return Export{}, fmt.Errorf("save export: %w", err)
	}
	m.state = next

	m.logger.Info("records exported", "file", exp.FileName, "count", exp.Count)
	return exp, nil
}

// ImportSnapshot reads a backup produced by ExportSnapshot (or the legacy
// format) and merges or replaces the record list. Invalid data returns an
// IMPORT_SCHEMA error and leaves the state untouched. Duplicate ids inside
// the imported data keep their first occurrence.
func (m *Manager) ImportSnapshot(ctx context.Context, data []byte, mode ImportMode) (ImportResult, error) {
	if mode != ImportMerge && mode != ImportReplace {
		return ImportResult{}, invalidInput(fmt.Sprintf("unknown import mode %q", mode), nil)
	}

	imported, err := backup.Decode(data)
	if err != nil {
		return ImportResult{}, &Error{Code: ErrCodeImportSchema, Message: err.Error(), Err: err}
	}

	res := ImportResult{Mode: mode}
	m.mu.Lock()
	closedID := ""
	err = m.mutateLocked(ctx, func(next *model.Snapshot) error {
		seen := make(map[string]bool)
		var base []model.ClientRecord
		if mode == ImportMerge {
			base = next.Records
			for _, r := range base {
				seen[r.ID] = true
			}
		}
		for _, r := range imported {
			if seen[r.ID] {
				res.Skipped++
				continue
			}
			seen[r.ID] = true
			base = append(base, r)
			res.Added++
		}
		if base == nil {
			base = []model.ClientRecord{}
		}
		next.Records = base
		res.Total = len(base)
		return nil
	})
	if err == nil && m.openID != "" && indexOf(m.state.Records, m.openID) < 0 {
		closedID = m.openID
		m.openID = ""
	}
	m.mu.Unlock()

	if err != nil {
		return ImportResult{}, err
	}
	m.logger.Info("records imported", "mode", mode, "added", res.Added, "skipped", res.Skipped)
	if closedID != "" {
		m.listener.RecordClosed(closedID)
	}
	return res, nil
}
