// Package backup reads and writes the JSON record list used for manual
// export and import.
package backup

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/szerviz/internal/model"
)

// DefaultPrefix is the export file name prefix.
const DefaultPrefix = "szerviz_mentes"

//go:embed schema.cue
var schemaCUE string

// ErrNotArray is returned when import data is not a JSON array.
var ErrNotArray = errors.New("backup data is not a JSON array")

// Violation is one schema failure inside an imported entry.
type Violation struct {
	Index   int    `json:"index"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// SchemaError lists every entry that failed validation.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 0 {
		return "backup schema violation"
	}
	v := e.Violations[0]
	msg := fmt.Sprintf("entry %d: %s", v.Index, v.Message)
	if len(e.Violations) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Violations)-1)
	}
	return msg
}

// FileName returns "<prefix>_<YYYY-MM-DD>.json" for the UTC date of t.
func FileName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s.json", prefix, t.UTC().Format("2006-01-02"))
}

// Encode renders records as a compact JSON array. HTML characters are not
// escaped and no trailing newline is written, so equal input gives equal
// bytes.
func Encode(records []model.ClientRecord) ([]byte, error) {
	out := make([]model.ClientRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses an exported record list. Data that is not a JSON array
// yields ErrNotArray; entries that do not match the record schema yield a
// *SchemaError. Nothing is returned unless every entry is valid.
func Decode(data []byte) ([]model.ClientRecord, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		if err == nil {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile backup schema: %w", err)
	}
	recordDef := schema.LookupPath(cue.ParsePath("#ClientRecord"))

	var violations []Violation
	records := make([]model.ClientRecord, 0, len(entries))
	for i, raw := range entries {
		if vs := validateEntry(ctx, recordDef, i, raw); len(vs) > 0 {
			violations = append(violations, vs...)
			continue
		}

		var rec model.ClientRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			violations = append(violations, Violation{Index: i, Message: err.Error()})
			continue
		}
		for j, p := range rec.Photos {
			if p.LocalURL == "" && p.RemoteURL == "" {
				violations = append(violations, Violation{
					Index:   i,
					Path:    fmt.Sprintf("photos.%d", j),
					Message: "photo has neither a local nor a remote url",
				})
			}
		}
		records = append(records, rec.Clone())
	}

	if len(violations) > 0 {
		return nil, &SchemaError{Violations: violations}
	}
	return records, nil
}

func validateEntry(ctx *cue.Context, def cue.Value, index int, raw json.RawMessage) []Violation {
	expr, err := cuejson.Extract(fmt.Sprintf("entry[%d]", index), raw)
	if err != nil {
		return []Violation{{Index: index, Message: err.Error()}}
	}

	v := def.Unify(ctx.BuildExpr(expr))
	err = v.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var out []Violation
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, Violation{
			Index:   index,
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out) == 0 {
		out = append(out, Violation{Index: index, Message: err.Error()})
	}
	return out
}
