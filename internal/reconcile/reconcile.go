// Package reconcile uploads a record's pending photos and merges the
// resulting remote URLs back into the record.
//
// Photos are processed one at a time in list order. After each photo
// resolves, successfully or not, the record is written back through the
// Updater before the next upload starts, so progress is visible
// incrementally. A failed upload never aborts the pass; the photo stays
// PENDING_UPLOAD with its attempt counter raised, and becomes ERROR once
// the counter reaches MaxAttempts.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/szerviz/internal/model"
)

// DefaultMaxAttempts is the number of failed uploads after which a photo
// is marked ERROR.
const DefaultMaxAttempts = 5

// Uploader sends one photo to the remote image host. A non-nil error
// means "not uploaded yet".
type Uploader interface {
	Upload(ctx context.Context, photo model.PhotoEvidence) (string, error)
}

// Updater persists a partially reconciled record.
// Implemented by *lifecycle.Manager.
type Updater interface {
	UpdateRecord(ctx context.Context, rec model.ClientRecord) error
}

// Reconciler runs reconciliation passes.
type Reconciler struct {
	Uploader    Uploader
	Updater     Updater
	Online      Probe
	MaxAttempts int
	Logger      *slog.Logger
}

// Result describes the outcome of one pass.
type Result struct {
	Record model.ClientRecord `json:"record"`

	// RemoteURLs holds every resolved URL in photo order, including those
	// resolved by earlier passes.
	RemoteURLs []string `json:"remoteUrls"`

	Uploaded  int  `json:"uploaded"`
	Failed    int  `json:"failed"`
	Exhausted int  `json:"exhausted"`
	Pending   int  `json:"pending"`
	Offline   bool `json:"offline"`
}

// Reconcile runs one pass over rec. Upload failures are absorbed into the
// result; the only error returned is ctx.Err() when the pass is cancelled,
// together with the partial result reached so far.
func (r *Reconciler) Reconcile(ctx context.Context, rec model.ClientRecord) (Result, error) {
	logger := r.logger()
	rec = rec.Clone()

	online := r.Online == nil || r.Online.Online(ctx)
	if !online {
		logger.Debug("offline, skipping photo upload", "record", rec.ID)
		return finish(rec, Result{Offline: true}), nil
	}

	var res Result
	for i := range rec.Photos {
		p := rec.Photos[i]
		if p.Resolved() || p.Status == model.PhotoError {
			continue
		}
		if err := ctx.Err(); err != nil {
			return finish(rec, res), err
		}

		if p.HasRemoteLocal() {
			p.RemoteURL = p.LocalURL
		} else if url, err := r.upload(ctx, p); err != nil {
			p.Attempts++
			p.LastError = err.Error()
			res.Failed++
			if p.Attempts >= r.maxAttempts() {
				p.Status = model.PhotoError
				res.Exhausted++
				logger.Warn("photo upload gave up", "record", rec.ID, "photo", p.ID, "attempts", p.Attempts, "error", err)
			} else {
				logger.Info("photo upload failed", "record", rec.ID, "photo", p.ID, "attempts", p.Attempts, "error", err)
			}
		} else {
			p.RemoteURL = url
		}

		if p.RemoteURL != "" {
			p.Status = model.PhotoUploaded
			p.LastError = ""
			res.Uploaded++
			logger.Debug("photo uploaded", "record", rec.ID, "photo", p.ID, "url", p.RemoteURL)
		}
		rec.Photos[i] = p

		if r.Updater != nil {
			if err := r.Updater.UpdateRecord(ctx, rec.Clone()); err != nil {
				logger.Warn("could not persist photo progress", "record", rec.ID, "photo", p.ID, "error", err)
			}
		}
	}

	return finish(rec, res), nil
}

func (r *Reconciler) upload(ctx context.Context, p model.PhotoEvidence) (string, error) {
	if r.Uploader == nil {
		return "", fmt.Errorf("no image host configured")
	}
	url, err := r.Uploader.Upload(ctx, p)
	if err == nil && url == "" {
		err = fmt.Errorf("image host returned no url")
	}
	return url, err
}

func (r *Reconciler) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func finish(rec model.ClientRecord, res Result) Result {
	res.Record = rec
	res.RemoteURLs = rec.RemoteURLs()
	for _, p := range rec.Photos {
		if p.Status == model.PhotoPendingUpload {
			res.Pending++
		}
	}
	return res
}
