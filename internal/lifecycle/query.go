package lifecycle

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/roach88/szerviz/internal/model"
)

// Week is the window of the finished-this-week counter.
const Week = 7 * 24 * time.Hour

// Records returns every record in stored order (newest created first).
func (m *Manager) Records() []model.ClientRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone().Records
}

// Get returns one record by id.
func (m *Manager) Get(id string) (model.ClientRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.state.Records, id)
	if i < 0 {
		return model.ClientRecord{}, notFound(id)
	}
	return m.state.Records[i].Clone(), nil
}

// List returns the dashboard view: records whose plate or name contains
// query (case-insensitive), ACTIVE before FINISHED, newest first within
// each group. An empty query matches everything.
func (m *Manager) List(query string) []model.ClientRecord {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))

	m.mu.Lock()
	var out []model.ClientRecord
	for _, r := range m.state.Records {
		if q == "" ||
			strings.Contains(fold.String(r.LicensePlate), q) ||
			strings.Contains(fold.String(r.Name), q) {
			out = append(out, r.Clone())
		}
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		ai := out[i].Status == model.StatusActive
		aj := out[j].Status == model.StatusActive
		if ai != aj {
			return ai
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	if out == nil {
		out = []model.ClientRecord{}
	}
	return out
}

// WeeklyFinished counts FINISHED records created within the last week.
func (m *Manager) WeeklyFinished() int {
	since := m.now().Add(-Week).UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.state.Records {
		if r.Status == model.StatusFinished && r.CreatedAt > since {
			n++
		}
	}
	return n
}

// ActiveCount counts ACTIVE records.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.state.Records {
		if r.Status == model.StatusActive {
			n++
		}
	}
	return n
}

// Open marks a record as the one shown in the workshop view.
func (m *Manager) Open(id string) (model.ClientRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.state.Records, id)
	if i < 0 {
		return model.ClientRecord{}, notFound(id)
	}
	m.openID = id
	return m.state.Records[i].Clone(), nil
}

// Close clears the open record.
func (m *Manager) Close() {
	m.mu.Lock()
	m.openID = ""
	m.mu.Unlock()
}

// Current returns the open record, if any.
func (m *Manager) Current() (model.ClientRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openID == "" {
		return model.ClientRecord{}, false
	}
	i := indexOf(m.state.Records, m.openID)
	if i < 0 {
		return model.ClientRecord{}, false
	}
	return m.state.Records[i].Clone(), true
}
