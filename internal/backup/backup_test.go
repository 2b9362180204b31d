package backup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/szerviz/internal/model"
)

func sampleRecords() []model.ClientRecord {
	return []model.ClientRecord{
		{
			ID:           "r2",
			Name:         "Nagy & Fia",
			LicensePlate: "BBB-222",
			Phone:        "+36 30 222 2222",
			Photos: []model.PhotoEvidence{
				{ID: "p1", LocalURL: "/photos/p1.jpg", RemoteURL: "https://img/p1.jpg", Status: model.PhotoUploaded, Source: model.SourceCamera},
				{ID: "p2", LocalURL: "/photos/p2.jpg", Status: model.PhotoPendingUpload, Attempts: 2, LastError: "timeout"},
			},
			Status:        model.StatusFinished,
			CreatedAt:     1718000000000,
			IsUrgent:      true,
			GDPRAccepted:  true,
			EstimatedCost: 50000,
			LaborCost:     30000,
			PartsCost:     20000,
			UseBreakdown:  true,
		},
		{
			ID:           "r1",
			Name:         "Kovács Béla",
			LicensePlate: "AAA-111",
			Phone:        "+36 30 111 1111",
			Photos:       []model.PhotoEvidence{},
			Status:       model.StatusActive,
			CreatedAt:    1717000000000,
			GDPRAccepted: true,
		},
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "szerviz_mentes_2024-06-10.json", FileName("", at))
	assert.Equal(t, "garage_2024-06-10.json", FileName("garage", at))
}

func TestEncode_Compact(t *testing.T) {
	data, err := Encode(sampleRecords()[1:])
	require.NoError(t, err)

	assert.Equal(t,
		`[{"id":"r1","name":"Kovács Béla","licensePlate":"AAA-111","phone":"+36 30 111 1111","photos":[],"status":"ACTIVE","createdAt":1717000000000,"isUrgent":false,"gdprAccepted":true}]`,
		string(data))
}

func TestEncode_NoHTMLEscapeNoNewline(t *testing.T) {
	data, err := Encode(sampleRecords()[:1])
	require.NoError(t, err)

	assert.Contains(t, string(data), "Nagy & Fia")
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode(sampleRecords())
	require.NoError(t, err)
	b, err := Encode(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRoundTrip(t *testing.T) {
	records := sampleRecords()

	data, err := Encode(records)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, records, decoded)
}

func TestDecode_NotArray(t *testing.T) {
	for _, in := range []string{`{"id":"r1"}`, `null`, `"text"`, `not json`, ``} {
		t.Run(in, func(t *testing.T) {
			_, err := Decode([]byte(in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotArray))
		})
	}
}

func TestDecode_EmptyArray(t *testing.T) {
	records, err := Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestDecode_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"bad status", `[{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"DONE","createdAt":1}]`, "status"},
		{"missing id", `[{"name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":1}]`, "id"},
		{"negative cost", `[{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":1,"laborCost":-5}]`, "laborCost"},
		{"string createdAt", `[{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":"today"}]`, "createdAt"},
		{"entry not object", `[42]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)

			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			require.NotEmpty(t, se.Violations)
			assert.Equal(t, 0, se.Violations[0].Index)
			if tt.path != "" {
				assert.Contains(t, se.Violations[0].Path, tt.path)
			}
		})
	}
}

func TestDecode_ReportsEntryIndex(t *testing.T) {
	data := `[
		{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":1},
		{"id":"r2","name":"B","licensePlate":"BBB","phone":"12345678","status":"UNKNOWN","createdAt":2}
	]`

	_, err := Decode([]byte(data))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Violations[0].Index)
	assert.Contains(t, se.Error(), "entry 1")
}

func TestDecode_PhotoWithoutURL(t *testing.T) {
	data := `[{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":1,"photos":[{"id":"p1","status":"PENDING_UPLOAD"}]}]`

	_, err := Decode([]byte(data))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "photos.0", se.Violations[0].Path)
}

func TestDecode_LegacyPhotoKeysAndNullPhotos(t *testing.T) {
	data := `[
		{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":1,
		 "photos":[{"id":"p1","url":"blob:x","cloudUrl":"https://img/x.jpg","status":"UPLOADED"}]},
		{"id":"r2","name":"B","licensePlate":"BBB","phone":"12345678","status":"FINISHED","createdAt":2,"photos":null}
	]`

	records, err := Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "blob:x", records[0].Photos[0].LocalURL)
	assert.Equal(t, "https://img/x.jpg", records[0].Photos[0].RemoteURL)
	assert.Equal(t, model.PhotoUploaded, records[0].Photos[0].Status)
	assert.NotNil(t, records[1].Photos)
}

func TestDecode_UnknownFieldsAccepted(t *testing.T) {
	data := `[{"id":"r1","name":"A","licensePlate":"AAA","phone":"12345678","status":"ACTIVE","createdAt":1,"mileage":120000}]`

	records, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
