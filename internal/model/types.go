package model

import (
	"encoding/json"
	"strings"
)

// Status is the lifecycle state of a ClientRecord.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)

// PhotoStatus is the upload state of a PhotoEvidence.
type PhotoStatus string

const (
	PhotoPendingUpload PhotoStatus = "PENDING_UPLOAD"
	PhotoUploaded      PhotoStatus = "UPLOADED"
	PhotoError         PhotoStatus = "ERROR"
)

// PhotoSource records how a photo entered the record.
type PhotoSource string

const (
	SourceCamera  PhotoSource = "CAMERA"
	SourceGallery PhotoSource = "GALLERY"
)

// Texture is the dashboard background style.
type Texture string

const (
	TextureNone   Texture = "none"
	TextureCarbon Texture = "carbon"
	TextureMetal  Texture = "metal"
)

// ValidTextures defines allowed texture values.
var ValidTextures = map[Texture]bool{
	TextureNone:   true,
	TextureCarbon: true,
	TextureMetal:  true,
}

// ClientRecord is one tracked repair job for one vehicle/customer.
type ClientRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	LicensePlate  string          `json:"licensePlate"`
	Phone         string          `json:"phone"`
	Photos        []PhotoEvidence `json:"photos"`
	Status        Status          `json:"status"`
	CreatedAt     int64           `json:"createdAt"` // epoch millis
	IsUrgent      bool            `json:"isUrgent"`
	GDPRAccepted  bool            `json:"gdprAccepted"`
	EstimatedCost int64           `json:"estimatedCost,omitempty"`
	LaborCost     int64           `json:"laborCost,omitempty"`
	PartsCost     int64           `json:"partsCost,omitempty"`
	UseBreakdown  bool            `json:"useBreakdown,omitempty"`
}

// Clone returns a deep copy so callers can mutate photos without aliasing.
// Photos is always non-nil in the copy.
func (r ClientRecord) Clone() ClientRecord {
	out := r
	out.Photos = make([]PhotoEvidence, len(r.Photos))
	copy(out.Photos, r.Photos)
	return out
}

// Quote returns the cost fields of the record.
func (r ClientRecord) Quote() Quote {
	return Quote{
		Estimated:    r.EstimatedCost,
		Labor:        r.LaborCost,
		Parts:        r.PartsCost,
		UseBreakdown: r.UseBreakdown,
	}
}

// WithQuote returns a copy of the record carrying the normalized quote.
func (r ClientRecord) WithQuote(q Quote) ClientRecord {
	q = q.Normalize()
	r.EstimatedCost = q.Estimated
	r.LaborCost = q.Labor
	r.PartsCost = q.Parts
	r.UseBreakdown = q.UseBreakdown
	return r
}

// RemoteURLs returns every resolved remote URL in photo order.
// Returns an empty slice (not nil) when nothing has been uploaded.
func (r ClientRecord) RemoteURLs() []string {
	urls := []string{}
	for _, p := range r.Photos {
		if p.RemoteURL != "" {
			urls = append(urls, p.RemoteURL)
		}
	}
	return urls
}

// PhotoIndex returns the position of the photo with the given id, or -1.
func (r ClientRecord) PhotoIndex(photoID string) int {
	for i, p := range r.Photos {
		if p.ID == photoID {
			return i
		}
	}
	return -1
}

// PhotoEvidence is one image attached to a record.
type PhotoEvidence struct {
	ID        string      `json:"id"`
	LocalURL  string      `json:"localUrl"`
	RemoteURL string      `json:"remoteUrl,omitempty"`
	Source    PhotoSource `json:"source,omitempty"`
	Status    PhotoStatus `json:"status"`
	Attempts  int         `json:"attempts,omitempty"`
	LastError string      `json:"lastError,omitempty"`
}

// UnmarshalJSON accepts the legacy "url"/"cloudUrl" keys written by older
// backups and restores the status invariant when the status is missing.
func (p *PhotoEvidence) UnmarshalJSON(data []byte) error {
	type plain PhotoEvidence
	var aux struct {
		plain
		LegacyURL      string `json:"url"`
		LegacyCloudURL string `json:"cloudUrl"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PhotoEvidence(aux.plain)
	if p.LocalURL == "" {
		p.LocalURL = aux.LegacyURL
	}
	if p.RemoteURL == "" {
		p.RemoteURL = aux.LegacyCloudURL
	}
	switch {
	case p.RemoteURL != "":
		p.Status = PhotoUploaded
	case p.Status == "" || p.Status == PhotoUploaded:
		p.Status = PhotoPendingUpload
	}
	return nil
}

// Resolved reports whether the photo already has a remote URL.
func (p PhotoEvidence) Resolved() bool {
	return p.RemoteURL != ""
}

// HasRemoteLocal reports whether the local reference is already a hosted
// http(s) URL, in which case no upload is needed.
func (p PhotoEvidence) HasRemoteLocal() bool {
	u := strings.ToLower(p.LocalURL)
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// ShopSettings is the process-wide configuration created by onboarding.
type ShopSettings struct {
	ShopName               string  `json:"shopName"`
	ThemeColor             string  `json:"themeColor"`
	LogoURL                string  `json:"logoUrl,omitempty"`
	DarkMode               bool    `json:"darkMode"`
	Texture                Texture `json:"texture"`
	ClientCountSinceBackup int     `json:"clientCountSinceBackup"`
	IsPro                  bool    `json:"isPro"`
}

// Quote is the cost breakdown of a job.
type Quote struct {
	Estimated    int64 `json:"estimated"`
	Labor        int64 `json:"labor"`
	Parts        int64 `json:"parts"`
	UseBreakdown bool  `json:"useBreakdown"`
}

// Normalize maintains Estimated = Labor + Parts while breakdown mode is on.
// With breakdown off the estimate is kept as given, so switching breakdown
// off leaves the last computed total in place until a new estimate is set.
func (q Quote) Normalize() Quote {
	if q.UseBreakdown {
		q.Estimated = q.Labor + q.Parts
	}
	return q
}

// Total is the amount shown to the customer.
func (q Quote) Total() int64 {
	if q.UseBreakdown {
		return q.Labor + q.Parts
	}
	return q.Estimated
}

// Itemized reports whether the quote should render as parts + labor.
func (q Quote) Itemized() bool {
	return q.UseBreakdown && (q.Labor != 0 || q.Parts != 0)
}

// Snapshot is the complete persisted application state. Settings is nil
// until onboarding completes.
type Snapshot struct {
	Settings  *ShopSettings
	Records   []ClientRecord
	Templates []string
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Records:   make([]ClientRecord, len(s.Records)),
		Templates: make([]string, len(s.Templates)),
	}
	if s.Settings != nil {
		settings := *s.Settings
		out.Settings = &settings
	}
	for i, r := range s.Records {
		out.Records[i] = r.Clone()
	}
	copy(out.Templates, s.Templates)
	return out
}
