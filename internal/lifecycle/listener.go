package lifecycle

// Listener receives signals meant for the presentation layer.
// Calls happen after the triggering change has been persisted, outside the
// manager's lock.
type Listener interface {
	// BackupDue reports that count records were created since the last export.
	BackupDue(count int)

	// RecordClosed reports that the open record was deleted and any view
	// showing it should return to the list.
	RecordClosed(id string)
}

// NopListener ignores every signal.
type NopListener struct{}

func (NopListener) BackupDue(int)       {}
func (NopListener) RecordClosed(string) {}
