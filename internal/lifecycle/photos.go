package lifecycle

import (
	"context"
	"strings"

	"github.com/roach88/szerviz/internal/model"
)

// PhotoInput is one image to attach to a record.
type PhotoInput struct {
	LocalURL string
	Source   model.PhotoSource
}

// AddPhotos appends photos in the given order, each PENDING_UPLOAD with a
// fresh id.
func (m *Manager) AddPhotos(ctx context.Context, id string, inputs []PhotoInput) (model.ClientRecord, error) {
	if len(inputs) == 0 {
		return model.ClientRecord{}, invalidInput("no photos given", nil)
	}
	for _, in := range inputs {
		if strings.TrimSpace(in.LocalURL) == "" {
			return model.ClientRecord{}, invalidInput("photo local url is required", nil)
		}
	}

	return m.updateOne(ctx, id, func(r *model.ClientRecord) error {
		for _, in := range inputs {
			r.Photos = append(r.Photos, model.PhotoEvidence{
				ID:       m.ids.Generate(),
				LocalURL: strings.TrimSpace(in.LocalURL),
				Source:   in.Source,
				Status:   model.PhotoPendingUpload,
			})
		}
		return nil
	})
}

// RemovePhoto detaches one photo from a record.
func (m *Manager) RemovePhoto(ctx context.Context, id, photoID string) (model.ClientRecord, error) {
	return m.updateOne(ctx, id, func(r *model.ClientRecord) error {
		j := r.PhotoIndex(photoID)
		if j < 0 {
			return &Error{Code: ErrCodeNotFound, Message: "photo not found", ID: photoID}
		}
		r.Photos = append(r.Photos[:j], r.Photos[j+1:]...)
		return nil
	})
}

// RetryFailedPhotos puts every ERROR photo of a record back into
// PENDING_UPLOAD with its attempt counter cleared. It returns the number of
// photos reset; nothing is written when there are none.
func (m *Manager) RetryFailedPhotos(ctx context.Context, id string) (model.ClientRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.state.Records, id)
	if i < 0 {
		return model.ClientRecord{}, 0, notFound(id)
	}

	failed := 0
	for _, p := range m.state.Records[i].Photos {
		if p.Status == model.PhotoError {
			failed++
		}
	}
	if failed == 0 {
		return m.state.Records[i].Clone(), 0, nil
	}

	var out model.ClientRecord
	err := m.mutateLocked(ctx, func(next *model.Snapshot) error {
		photos := next.Records[i].Photos
		for j := range photos {
			if photos[j].Status == model.PhotoError {
				photos[j].Status = model.PhotoPendingUpload
				photos[j].Attempts = 0
				photos[j].LastError = ""
			}
		}
		out = next.Records[i].Clone()
		return nil
	})
	if err != nil {
		return model.ClientRecord{}, 0, err
	}
	return out, failed, nil
}
