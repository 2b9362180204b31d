package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/szerviz/internal/model"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates an ACTIVE record with one pending photo.
func createTestRecord(id, plate string, createdAt int64) model.ClientRecord {
	return model.ClientRecord{
		ID:           id,
		Name:         "Teszt Elek",
		LicensePlate: plate,
		Phone:        "+36 30 123 4567",
		Photos: []model.PhotoEvidence{
			{ID: id + "-p1", LocalURL: "/tmp/" + id + ".jpg", Status: model.PhotoPendingUpload},
		},
		Status:       model.StatusActive,
		CreatedAt:    createdAt,
		GDPRAccepted: true,
	}
}

// putRaw writes a blob value bypassing Save.
func putRaw(t *testing.T, s *Store, key, value string) {
	t.Helper()
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO blobs (key, value, updated_at) VALUES (?, ?, 0)",
		key, value,
	)
	if err != nil {
		t.Fatalf("putRaw(%s) failed: %v", key, err)
	}
}
