package lifecycle

import (
	"context"
	"strings"

	"github.com/roach88/szerviz/internal/model"
)

// CreateRecord validates the intake and prepends a new ACTIVE record with
// no photos. Each creation increments the backup counter; once the counter
// reaches the threshold every further creation raises BackupDue until the
// next export.
func (m *Manager) CreateRecord(ctx context.Context, in model.Intake) (model.ClientRecord, error) {
	if err := in.Validate(); err != nil {
		return model.ClientRecord{}, invalidInput("intake rejected", err)
	}
	in = in.Normalize()

	var (
		created model.ClientRecord
		count   int
	)
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		if next.Settings == nil {
			return errNotOnboarded
		}
		created = model.ClientRecord{
			ID:           m.ids.Generate(),
			Name:         in.Name,
			LicensePlate: in.LicensePlate,
			Phone:        in.Phone,
			Photos:       []model.PhotoEvidence{},
			Status:       model.StatusActive,
			CreatedAt:    m.nowMillis(),
			IsUrgent:     in.IsUrgent,
			GDPRAccepted: in.GDPRAccepted,
		}
		next.Records = append([]model.ClientRecord{created}, next.Records...)
		next.Settings.ClientCountSinceBackup++
		count = next.Settings.ClientCountSinceBackup
		return nil
	})
	if err != nil {
		return model.ClientRecord{}, err
	}

	m.logger.Info("record created", "id", created.ID, "plate", created.LicensePlate)
	if count >= m.backupThreshold {
		m.listener.BackupDue(count)
	}
	return created.Clone(), nil
}

// UpdateRecord replaces the stored record with the same id. The id,
// createdAt and a FINISHED status cannot be changed this way; photo status
// is reconciled with the presence of a remote url.
func (m *Manager) UpdateRecord(ctx context.Context, rec model.ClientRecord) error {
	return m.mutate(ctx, func(next *model.Snapshot) error {
		i := indexOf(next.Records, rec.ID)
		if i < 0 {
			return notFound(rec.ID)
		}
		cur := next.Records[i]

		upd := rec.Clone().WithQuote(rec.Quote())
		upd.CreatedAt = cur.CreatedAt
		if cur.Status == model.StatusFinished {
			upd.Status = model.StatusFinished
		}
		if upd.Status != model.StatusFinished {
			upd.Status = model.StatusActive
		}
		for j := range upd.Photos {
			upd.Photos[j] = consistentPhoto(upd.Photos[j])
		}
		next.Records[i] = upd
		return nil
	})
}

// DeleteRecord removes a record permanently. Deleting the open record
// closes it and raises RecordClosed.
func (m *Manager) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	closed := false
	err := m.mutateLocked(ctx, func(next *model.Snapshot) error {
		i := indexOf(next.Records, id)
		if i < 0 {
			return notFound(id)
		}
		next.Records = append(next.Records[:i], next.Records[i+1:]...)
		return nil
	})
	if err == nil && m.openID == id {
		m.openID = ""
		closed = true
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.logger.Info("record deleted", "id", id)
	if closed {
		m.listener.RecordClosed(id)
	}
	return nil
}

// MarkFinished moves a record to FINISHED. Calling it on a finished record
// is a no-op.
func (m *Manager) MarkFinished(ctx context.Context, id string) (model.ClientRecord, error) {
	var out model.ClientRecord
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.state.Records, id)
	if i < 0 {
		return out, notFound(id)
	}
	if m.state.Records[i].Status == model.StatusFinished {
		return m.state.Records[i].Clone(), nil
	}

	err := m.mutateLocked(ctx, func(next *model.Snapshot) error {
		next.Records[i].Status = model.StatusFinished
		out = next.Records[i].Clone()
		return nil
	})
	return out, err
}

// SetQuote stores the cost breakdown of a record. With breakdown on, the
// estimate is recomputed as labor + parts.
func (m *Manager) SetQuote(ctx context.Context, id string, q model.Quote) (model.ClientRecord, error) {
	if q.Estimated < 0 || q.Labor < 0 || q.Parts < 0 {
		return model.ClientRecord{}, invalidInput("costs must not be negative", nil)
	}
	return m.updateOne(ctx, id, func(r *model.ClientRecord) error {
		*r = r.WithQuote(q)
		return nil
	})
}

// updateOne applies fn to the record with the given id inside a mutation.
func (m *Manager) updateOne(ctx context.Context, id string, fn func(*model.ClientRecord) error) (model.ClientRecord, error) {
	var out model.ClientRecord
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		i := indexOf(next.Records, id)
		if i < 0 {
			return notFound(id)
		}
		if err := fn(&next.Records[i]); err != nil {
			return err
		}
		out = next.Records[i].Clone()
		return nil
	})
	return out, err
}

func consistentPhoto(p model.PhotoEvidence) model.PhotoEvidence {
	p.RemoteURL = strings.TrimSpace(p.RemoteURL)
	switch {
	case p.RemoteURL != "":
		p.Status = model.PhotoUploaded
		p.LastError = ""
	case p.Status != model.PhotoError:
		p.Status = model.PhotoPendingUpload
	}
	return p
}
