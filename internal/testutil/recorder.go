package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/szerviz/internal/model"
)

// RecordingListener captures lifecycle signals.
type RecordingListener struct {
	mu     sync.Mutex
	Backup []int
	Closed []string
}

func (l *RecordingListener) BackupDue(count int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Backup = append(l.Backup, count)
}

func (l *RecordingListener) RecordClosed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Closed = append(l.Closed, id)
}

// BackupSignals returns a copy of the BackupDue counts received.
func (l *RecordingListener) BackupSignals() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.Backup...)
}

// ClosedSignals returns a copy of the RecordClosed ids received.
func (l *RecordingListener) ClosedSignals() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Closed...)
}

// ErrUploadFailed is returned by ScriptedUploader for failing photos.
var ErrUploadFailed = errors.New("upload failed")

// ScriptedUploader is an image host that succeeds for every photo except
// those listed in Fail. Successful uploads return BaseURL + photo id.
// Every call is recorded in order.
type ScriptedUploader struct {
	mu      sync.Mutex
	BaseURL string
	Fail    map[string]bool
	calls   []string

	// OnUpload, when set, runs before each upload decision.
	OnUpload func(ctx context.Context, p model.PhotoEvidence)
}

// NewScriptedUploader creates an uploader failing for the given photo ids.
func NewScriptedUploader(failIDs ...string) *ScriptedUploader {
	fail := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		fail[id] = true
	}
	return &ScriptedUploader{BaseURL: "https://img.test/", Fail: fail}
}

func (u *ScriptedUploader) Upload(ctx context.Context, p model.PhotoEvidence) (string, error) {
	if u.OnUpload != nil {
		u.OnUpload(ctx, p)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, p.ID)
	if u.Fail[p.ID] {
		return "", ErrUploadFailed
	}
	return u.BaseURL + p.ID, nil
}

// Calls returns the photo ids uploaded so far, in call order.
func (u *ScriptedUploader) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}
