package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/szerviz/internal/model"
)

// Blob keys. Each key is decoded independently on load.
const (
	KeySettings  = "settings"
	KeyRecords   = "records"
	KeyTemplates = "templates"
)

// LoadReport lists the keys that were absent or unreadable during Load.
// Both kinds are replaced by their defaults.
type LoadReport struct {
	Missing []string
	Corrupt []string
}

// Clean reports whether every key was present and decoded.
func (r LoadReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Corrupt) == 0
}

// ExportEntry is one row of backup history.
type ExportEntry struct {
	ID          int64
	FileName    string
	RecordCount int
	CreatedAt   time.Time
}

// Load reads the persisted snapshot. A key that is missing or fails to
// decode falls back to its default while the other keys still load:
// no settings (onboarding required), no records, starter templates.
// Only database errors are returned.
func (s *Store) Load(ctx context.Context) (model.Snapshot, LoadReport, error) {
	var report LoadReport

	raw, err := s.readBlobs(ctx)
	if err != nil {
		return model.Snapshot{}, report, err
	}

	snap := model.Snapshot{
		Records:   []model.ClientRecord{},
		Templates: StarterTemplates(),
	}

	if v, ok := raw[KeySettings]; !ok {
		report.Missing = append(report.Missing, KeySettings)
	} else {
		var settings model.ShopSettings
		if err := json.Unmarshal([]byte(v), &settings); err != nil {
			s.corrupt(&report, KeySettings, err)
		} else {
			snap.Settings = &settings
		}
	}

	if v, ok := raw[KeyRecords]; !ok {
		report.Missing = append(report.Missing, KeyRecords)
	} else {
		var records []model.ClientRecord
		if err := json.Unmarshal([]byte(v), &records); err != nil {
			s.corrupt(&report, KeyRecords, err)
		} else {
			for _, r := range records {
				snap.Records = append(snap.Records, r.Clone())
			}
		}
	}

	if v, ok := raw[KeyTemplates]; !ok {
		report.Missing = append(report.Missing, KeyTemplates)
	} else {
		var templates []string
		if err := json.Unmarshal([]byte(v), &templates); err != nil {
			s.corrupt(&report, KeyTemplates, err)
		} else if templates != nil {
			snap.Templates = templates
		}
	}

	return snap, report, nil
}

func (s *Store) corrupt(report *LoadReport, key string, err error) {
	s.logger.Warn("discarding unreadable stored value", "key", key, "error", err)
	report.Corrupt = append(report.Corrupt, key)
}

func (s *Store) readBlobs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM blobs")
	if err != nil {
		return nil, fmt.Errorf("query blobs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan blob: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blobs: %w", err)
	}
	return out, nil
}

// Save writes the whole snapshot in one transaction. Either every key is
// replaced or none is. A nil Settings removes the settings row.
func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writeSnapshot(ctx, tx, snap, time.Now())
	})
}

// SaveExport persists the snapshot and appends a backup history row in the
// same transaction.
func (s *Store) SaveExport(ctx context.Context, snap model.Snapshot, entry ExportEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := writeSnapshot(ctx, tx, snap, entry.CreatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO exports (file_name, record_count, created_at) VALUES (?, ?, ?)",
			entry.FileName, entry.RecordCount, entry.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert export: %w", err)
		}
		return nil
	})
}

// ExportHistory returns the most recent backups, newest first.
// A limit of zero or less returns every entry.
func (s *Store) ExportHistory(ctx context.Context, limit int) ([]ExportEntry, error) {
	query := "SELECT id, file_name, record_count, created_at FROM exports ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	entries := []ExportEntry{}
	for rows.Next() {
		var e ExportEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.FileName, &e.RecordCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return entries, nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, snap model.Snapshot, now time.Time) error {
	records := make([]model.ClientRecord, 0, len(snap.Records))
	for _, r := range snap.Records {
		records = append(records, r.Clone())
	}
	templates := snap.Templates
	if templates == nil {
		templates = []string{}
	}

	values := map[string]any{
		KeyRecords:   records,
		KeyTemplates: templates,
	}
	if snap.Settings != nil {
		values[KeySettings] = snap.Settings
	} else if _, err := tx.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", KeySettings); err != nil {
		return fmt.Errorf("delete %s: %w", KeySettings, err)
	}

	for _, key := range []string{KeySettings, KeyRecords, KeyTemplates} {
		v, ok := values[key]
		if !ok {
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(data), now.UnixMilli())
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}
