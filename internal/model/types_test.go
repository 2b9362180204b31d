package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_NormalizeBreakdown(t *testing.T) {
	q := Quote{Estimated: 1, Labor: 30000, Parts: 20000, UseBreakdown: true}.Normalize()

	assert.Equal(t, int64(50000), q.Estimated)
	assert.Equal(t, int64(50000), q.Total())
	assert.True(t, q.Itemized())
}

func TestQuote_BreakdownOffKeepsLastTotal(t *testing.T) {
	on := Quote{Labor: 30000, Parts: 20000, UseBreakdown: true}.Normalize()
	off := on
	off.UseBreakdown = false
	off = off.Normalize()

	assert.Equal(t, int64(50000), off.Total())
	assert.False(t, off.Itemized())
}

func TestQuote_ItemizedNeedsSubCost(t *testing.T) {
	q := Quote{Estimated: 5000, UseBreakdown: true}
	assert.False(t, q.Itemized())
	assert.Equal(t, int64(0), q.Total())
}

func TestClientRecord_CloneDoesNotAlias(t *testing.T) {
	rec := ClientRecord{ID: "r1", Photos: []PhotoEvidence{{ID: "p1", Status: PhotoPendingUpload}}}
	c := rec.Clone()
	c.Photos[0].Status = PhotoUploaded

	assert.Equal(t, PhotoPendingUpload, rec.Photos[0].Status)
}

func TestClientRecord_CloneNilPhotos(t *testing.T) {
	c := ClientRecord{ID: "r1"}.Clone()
	assert.NotNil(t, c.Photos)
	assert.Empty(t, c.Photos)
}

func TestClientRecord_RemoteURLs(t *testing.T) {
	rec := ClientRecord{Photos: []PhotoEvidence{
		{ID: "p1", RemoteURL: "https://img/1"},
		{ID: "p2"},
		{ID: "p3", RemoteURL: "https://img/3"},
	}}

	assert.Equal(t, []string{"https://img/1", "https://img/3"}, rec.RemoteURLs())
	assert.Equal(t, []string{}, ClientRecord{}.RemoteURLs())
	assert.Equal(t, 2, rec.PhotoIndex("p3"))
	assert.Equal(t, -1, rec.PhotoIndex("nope"))
}

func TestClientRecord_WithQuote(t *testing.T) {
	rec := ClientRecord{ID: "r1"}.WithQuote(Quote{Labor: 100, Parts: 50, UseBreakdown: true})

	assert.Equal(t, int64(150), rec.EstimatedCost)
	assert.Equal(t, Quote{Estimated: 150, Labor: 100, Parts: 50, UseBreakdown: true}, rec.Quote())
}

func TestPhotoEvidence_UnmarshalLegacyKeys(t *testing.T) {
	data := `{"id":"p1","url":"blob:local/1","cloudUrl":"https://res.cloudinary.com/x.jpg","source":"GALLERY","status":"UPLOADED"}`

	var p PhotoEvidence
	require.NoError(t, json.Unmarshal([]byte(data), &p))

	assert.Equal(t, "blob:local/1", p.LocalURL)
	assert.Equal(t, "https://res.cloudinary.com/x.jpg", p.RemoteURL)
	assert.Equal(t, PhotoUploaded, p.Status)
	assert.Equal(t, SourceGallery, p.Source)
}

func TestPhotoEvidence_UnmarshalRestoresInvariant(t *testing.T) {
	var p PhotoEvidence
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","localUrl":"a.jpg","status":"UPLOADED"}`), &p))
	assert.Equal(t, PhotoPendingUpload, p.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"p2","localUrl":"a.jpg","remoteUrl":"https://x","status":"PENDING_UPLOAD"}`), &p))
	assert.Equal(t, PhotoUploaded, p.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"p3","localUrl":"a.jpg","status":"ERROR"}`), &p))
	assert.Equal(t, PhotoError, p.Status)
}

func TestPhotoEvidence_HasRemoteLocal(t *testing.T) {
	assert.True(t, PhotoEvidence{LocalURL: "https://example.com/a.jpg"}.HasRemoteLocal())
	assert.True(t, PhotoEvidence{LocalURL: "HTTP://example.com/a.jpg"}.HasRemoteLocal())
	assert.False(t, PhotoEvidence{LocalURL: "/home/user/a.jpg"}.HasRemoteLocal())
	assert.False(t, PhotoEvidence{LocalURL: "blob:http://x"}.HasRemoteLocal())
}
