package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/szerviz/internal/lifecycle"
	"github.com/roach88/szerviz/internal/reconcile"
	"github.com/roach88/szerviz/internal/testutil"
)

var testEpoch = time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

// shop drives the CLI against one temp database, sharing the clock, id
// sequence and collaborators across invocations.
type shop struct {
	t        *testing.T
	dir      string
	db       string
	clock    *testutil.FakeClock
	ids      lifecycle.IDGenerator
	uploader *testutil.ScriptedUploader
	gen      *fakeGenerator
	online   bool
}

type fakeGenerator struct {
	out     string
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.out, nil
}

func newShop(t *testing.T) *shop {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"SZERVIZ_DATABASE", "SZERVIZ_OFFLINE", "SZERVIZ_LICENSE_KEY", "SZERVIZ_UPLOAD_PROVIDER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	return &shop{
		t:        t,
		dir:      home,
		db:       filepath.Join(home, "shop.db"),
		clock:    testutil.NewFakeClock(testEpoch),
		ids:      lifecycle.SequenceGenerator("id"),
		uploader: testutil.NewScriptedUploader(),
		gen:      &fakeGenerator{out: "Szépített diagnózis"},
		online:   true,
	}
}

// onboardedShop returns a shop that has completed onboarding.
func onboardedShop(t *testing.T) *shop {
	t.Helper()
	s := newShop(t)
	s.mustRun("onboard", "Teszt Szerviz")
	return s
}

type runResult struct {
	Stdout string
	Stderr string
	Err    error
}

func (s *shop) run(args ...string) runResult {
	s.t.Helper()
	opts := &RootOptions{
		Now:       s.clock.Now,
		IDs:       s.ids,
		Uploader:  s.uploader,
		Generator: s.gen,
		Probe:     reconcile.Static(s.online),
	}
	cmd := NewRootCommandWithOptions(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--db", s.db}, args...))
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	return runResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

func (s *shop) mustRun(args ...string) runResult {
	s.t.Helper()
	res := s.run(args...)
	require.NoError(s.t, res.Err, "stdout: %s\nstderr: %s", res.Stdout, res.Stderr)
	return res
}

// jsonResponse mirrors CLIResponse with the payload left raw.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// runJSON runs with --format json and decodes the envelope; data, when
// non-nil, receives the payload of a successful response.
func (s *shop) runJSON(data interface{}, args ...string) (jsonResponse, error) {
	s.t.Helper()
	res := s.run(append([]string{"--format", "json"}, args...)...)

	var resp jsonResponse
	require.NoError(s.t, json.Unmarshal([]byte(res.Stdout), &resp), "stdout: %q stderr: %q", res.Stdout, res.Stderr)
	if data != nil && resp.Status == "ok" {
		require.NoError(s.t, json.Unmarshal(resp.Data, data))
	}
	return resp, res.Err
}

func (s *shop) intake(name, plate string) string {
	s.t.Helper()
	var rec struct {
		ID string `json:"id"`
	}
	_, err := s.runJSON(&rec, "intake", "--name", name, "--plate", plate, "--phone", "+36 30 123 4567", "--gdpr")
	require.NoError(s.t, err)
	return rec.ID
}

// writeImage creates a photo file in the shop directory.
func (s *shop) writeImage(name string) string {
	s.t.Helper()
	path := filepath.Join(s.dir, name)
	require.NoError(s.t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0jpeg"), 0o600))
	return path
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}
