package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/config"
	"github.com/roach88/szerviz/internal/imagehost"
	"github.com/roach88/szerviz/internal/lifecycle"
	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/reconcile"
	"github.com/roach88/szerviz/internal/rewrite"
	"github.com/roach88/szerviz/internal/store"
)

// app is one command invocation's view of the shop: the open store, the
// lifecycle manager on top of it and the configured collaborators.
type app struct {
	opts  *RootOptions
	cfg   *config.Config
	store *store.Store
	mgr   *lifecycle.Manager
	out   *OutputFormatter
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Notices go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openApp opens the database named by the resolved configuration and
// loads the snapshot. Failures are reported through the formatter.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := newFormatter(cmd, opts)

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return nil, out.Fail(WrapExitError(ExitCommandError, ErrCodeConfig, err))
		}
	}

	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, out.Fail(WrapExitError(ExitCommandError, ErrCodeStorage, fmt.Errorf("create database directory: %w", err)))
		}
	}

	logger := slog.Default()
	st, err := store.Open(cfg.Database, store.WithLogger(logger))
	if err != nil {
		return nil, out.Fail(WrapExitError(ExitCommandError, ErrCodeStorage, fmt.Errorf("open database %s: %w", cfg.Database, err)))
	}

	mopts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithBackupThreshold(cfg.BackupThreshold),
		lifecycle.WithExportPrefix(cfg.ExportPrefix),
		lifecycle.WithLicenseKey(cfg.LicenseKey),
		lifecycle.WithListener(&noticeListener{out: out}),
	}
	if opts.Now != nil {
		mopts = append(mopts, lifecycle.WithClock(opts.Now))
	}
	if opts.IDs != nil {
		mopts = append(mopts, lifecycle.WithIDGenerator(opts.IDs))
	}

	mgr, err := lifecycle.New(cmd.Context(), st, mopts...)
	if err != nil {
		st.Close()
		return nil, out.Fail(WrapExitError(ExitCommandError, ErrCodeStorage, err))
	}
	if report := mgr.LoadReport(); !report.Clean() && len(report.Corrupt) > 0 {
		out.Notice("Warning: unreadable stored data was replaced with defaults: %s", strings.Join(report.Corrupt, ", "))
	}

	return &app{opts: opts, cfg: cfg, store: st, mgr: mgr, out: out}, nil
}

// Close releases the database.
func (a *app) Close() {
	if rec, ok := a.mgr.Current(); ok {
		a.out.VerboseLog("record %s closed", rec.ID)
	}
	a.mgr.Close()
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// settings returns the shop settings or a NOT_ONBOARDED failure.
func (a *app) settings() (model.ShopSettings, error) {
	s, ok := a.mgr.Settings()
	if !ok {
		return model.ShopSettings{}, a.out.Fail(&lifecycle.Error{
			Code:    lifecycle.ErrCodeNotOnboarded,
			Message: "shop settings have not been created; run `szerviz onboard <shop-name>` first",
		})
	}
	return s, nil
}

// resolve finds a record by full id, unique id prefix, or license plate.
func (a *app) resolve(ref string) (model.ClientRecord, error) {
	ref = strings.TrimSpace(ref)
	if _, err := a.mgr.Get(ref); err == nil {
		return a.open(ref)
	}

	plate := model.NormalizePlate(ref)
	var matches []model.ClientRecord
	for _, r := range a.mgr.Records() {
		if (len(ref) >= 4 && strings.HasPrefix(r.ID, ref)) || r.LicensePlate == plate {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 1:
		return a.open(matches[0].ID)
	case 0:
		_, err := a.mgr.Get(ref)
		return model.ClientRecord{}, a.out.Fail(err)
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return model.ClientRecord{}, a.out.Fail(usageError("%q matches %d records (%s); use the full id", ref, len(matches), strings.Join(ids, ", ")))
	}
}

// open makes id the record this invocation works on, so deleting it
// raises RecordClosed.
func (a *app) open(id string) (model.ClientRecord, error) {
	rec, err := a.mgr.Open(id)
	if err != nil {
		return model.ClientRecord{}, a.out.Fail(err)
	}
	return rec, nil
}

// resolvePhoto finds a photo of rec by exact id or unique id prefix.
// An unknown ref is passed through so the lifecycle reports NOT_FOUND.
func (a *app) resolvePhoto(rec model.ClientRecord, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if rec.PhotoIndex(ref) >= 0 {
		return ref, nil
	}

	var ids []string
	for _, p := range rec.Photos {
		if strings.HasPrefix(p.ID, ref) {
			ids = append(ids, p.ID)
		}
	}
	switch len(ids) {
	case 0:
		return ref, nil
	case 1:
		return ids[0], nil
	default:
		return "", a.out.Fail(usageError("%q matches %d photos (%s); use the full id", ref, len(ids), strings.Join(ids, ", ")))
	}
}

// uploader returns the configured image host.
func (a *app) uploader(ctx context.Context) (imagehost.Uploader, error) {
	if a.opts.Uploader != nil {
		return a.opts.Uploader, nil
	}
	up, err := imagehost.New(ctx, a.cfg.ImageHost())
	if err != nil {
		return nil, a.out.Fail(WrapExitError(ExitCommandError, ErrCodeConfig, err))
	}
	return up, nil
}

// probe reports connectivity. --offline, or uploads disabled by config,
// forces the offline path.
func (a *app) probe() reconcile.Probe {
	switch {
	case a.cfg.Offline, strings.EqualFold(a.cfg.Upload.Provider, imagehost.ProviderNone) && a.opts.Uploader == nil:
		return reconcile.Static(false)
	case a.opts.Probe != nil:
		return a.opts.Probe
	default:
		return reconcile.DialProbe{Addr: a.cfg.Upload.ProbeAddr}
	}
}

func (a *app) reconciler(ctx context.Context) (*reconcile.Reconciler, error) {
	up, err := a.uploader(ctx)
	if err != nil {
		return nil, err
	}
	return &reconcile.Reconciler{
		Uploader:    up,
		Updater:     a.mgr,
		Online:      a.probe(),
		MaxAttempts: a.cfg.Upload.MaxAttempts,
		Logger:      slog.Default(),
	}, nil
}

// rewriter returns the AI text service. Without an API key or generator
// override every call returns its input.
func (a *app) rewriter(ctx context.Context) *rewrite.Service {
	gen := a.opts.Generator
	if gen == nil && a.cfg.AI.APIKey != "" {
		g, err := rewrite.NewGemini(ctx, a.cfg.AI.APIKey)
		if err != nil {
			slog.Warn("AI rewrite unavailable", "error", err)
		} else {
			gen = g
		}
	}
	return rewrite.New(gen, rewrite.WithModel(a.cfg.AI.Model), rewrite.WithLogger(slog.Default()))
}

// noticeListener turns lifecycle signals into stderr notices.
type noticeListener struct {
	out *OutputFormatter
}

func (l *noticeListener) BackupDue(count int) {
	l.out.Notice("Reminder: %d new client(s) since the last backup. Run `szerviz export` to save a backup file.", count)
}

func (l *noticeListener) RecordClosed(id string) {
	l.out.VerboseLog("record %s closed", id)
}
