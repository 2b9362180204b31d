package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/lifecycle"
	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/reconcile"
)

// NewPhotoCommand creates the photo command group.
func NewPhotoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Manage a job's photo evidence",
	}

	cmd.AddCommand(newPhotoAddCommand(rootOpts))
	cmd.AddCommand(newPhotoRemoveCommand(rootOpts))
	cmd.AddCommand(newPhotoRetryCommand(rootOpts))

	return cmd
}

func newPhotoAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		source string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "add <id|plate> <file>...",
		Short: "Attach photos and upload them when online",
		Long: `Attach image files to a job. Photos are stored locally first and uploaded
in the given order when a connection is available; use --upload=false to
only attach them.

Example:
  szerviz photo add ABC-123 front.jpg engine.jpg --source camera`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			src, err := parseSource(source)
			if err != nil {
				return a.out.Fail(err)
			}
			rec, err := a.resolve(args[0])
			if err != nil {
				return err
			}

			inputs := make([]lifecycle.PhotoInput, 0, len(args)-1)
			for _, f := range args[1:] {
				ref, err := localRef(f)
				if err != nil {
					return a.out.Fail(err)
				}
				inputs = append(inputs, lifecycle.PhotoInput{LocalURL: ref, Source: src})
			}

			rec, err = a.mgr.AddPhotos(cmd.Context(), rec.ID, inputs)
			if err != nil {
				return a.out.Fail(err)
			}
			if !upload {
				return outputRecord(a, rec, fmt.Sprintf("✓ %d photo(s) attached to %s.", len(inputs), rec.LicensePlate))
			}
			return syncRecords(a, cmd, []model.ClientRecord{rec})
		},
	}

	cmd.Flags().StringVar(&source, "source", "gallery", "photo source (camera|gallery)")
	cmd.Flags().BoolVar(&upload, "upload", true, "upload right away when online")

	return cmd
}

func newPhotoRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id|plate> <photo-id>",
		Short: "Remove one photo from a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			photoID, err := a.resolvePhoto(rec, args[1])
			if err != nil {
				return err
			}
			rec, err = a.mgr.RemovePhoto(cmd.Context(), rec.ID, photoID)
			if err != nil {
				return a.out.Fail(err)
			}
			return outputRecord(a, rec, fmt.Sprintf("✓ Photo removed from %s.", rec.LicensePlate))
		},
	}

	return cmd
}

func newPhotoRetryCommand(rootOpts *RootOptions) *cobra.Command {
	var upload bool

	cmd := &cobra.Command{
		Use:   "retry <id|plate>",
		Short: "Queue photos that gave up uploading for another try",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			rec, n, err := a.mgr.RetryFailedPhotos(cmd.Context(), rec.ID)
			if err != nil {
				return a.out.Fail(err)
			}
			if n == 0 || !upload {
				return outputRecord(a, rec, fmt.Sprintf("%d photo(s) queued for upload.", n))
			}
			a.out.Notice("%d photo(s) queued for upload.", n)
			return syncRecords(a, cmd, []model.ClientRecord{rec})
		},
	}

	cmd.Flags().BoolVar(&upload, "upload", true, "upload right away when online")

	return cmd
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [id|plate]",
		Short: "Upload pending photos",
		Long: `Upload pending photos, one at a time in order, and store each remote URL
as soon as it is known. Without an argument every job with pending photos
is synced. Failed uploads stay pending and are retried on the next sync
until the attempt limit is reached.

Example:
  szerviz sync
  szerviz sync ABC-123`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			var recs []model.ClientRecord
			if len(args) == 1 {
				rec, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				recs = append(recs, rec)
			} else {
				for _, r := range a.mgr.Records() {
					if pendingPhotos(r) > 0 {
						recs = append(recs, r)
					}
				}
			}
			return syncRecords(a, cmd, recs)
		},
	}

	return cmd
}

// SyncResult is the sync payload.
type SyncResult struct {
	Records   []reconcile.Result `json:"records"`
	Uploaded  int                `json:"uploaded"`
	Failed    int                `json:"failed"`
	Exhausted int                `json:"exhausted"`
	Pending   int                `json:"pending"`
	Offline   bool               `json:"offline"`
}

// syncRecords runs one reconciliation pass per record. Ctrl-C stops after
// the photo in flight; progress already made is kept.
func syncRecords(a *app, cmd *cobra.Command, recs []model.ClientRecord) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := a.reconciler(ctx)
	if err != nil {
		return err
	}

	out := SyncResult{Records: []reconcile.Result{}}
	for _, rec := range recs {
		res, err := rc.Reconcile(ctx, rec)
		out.Records = append(out.Records, res)
		out.Uploaded += res.Uploaded
		out.Failed += res.Failed
		out.Exhausted += res.Exhausted
		out.Pending += res.Pending
		out.Offline = out.Offline || res.Offline
		if err != nil {
			return a.out.Fail(WrapExitError(ExitFailure, ErrCodeGeneric, fmt.Errorf("sync interrupted: %w", err)))
		}
		if res.Offline {
			break
		}
	}

	if a.out.Format == "json" {
		return a.out.Success(out)
	}
	w := a.out.Writer
	switch {
	case out.Offline:
		fmt.Fprintln(w, "Offline: photos stay queued until the next sync.")
	case len(recs) == 0:
		fmt.Fprintln(w, "Nothing to upload.")
	default:
		fmt.Fprintf(w, "✓ %d uploaded, %d failed, %d still pending", out.Uploaded, out.Failed, out.Pending)
		if out.Exhausted > 0 {
			fmt.Fprintf(w, ", %d gave up (use `szerviz photo retry`)", out.Exhausted)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// outputRecord prints rec in JSON mode, or msg in text mode.
func outputRecord(a *app, rec model.ClientRecord, msg string) error {
	if a.out.Format == "json" {
		return a.out.Success(rec)
	}
	fmt.Fprintln(a.out.Writer, msg)
	return nil
}

func parseSource(s string) (model.PhotoSource, error) {
	switch src := model.PhotoSource(strings.ToUpper(strings.TrimSpace(s))); src {
	case model.SourceCamera, model.SourceGallery:
		return src, nil
	}
	return "", usageError("invalid source %q: must be camera or gallery", s)
}

// localRef turns a file argument into the photo's local reference. Hosted
// http(s) URLs pass through; files must exist and are stored by absolute
// path.
func localRef(arg string) (string, error) {
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return arg, nil
	}
	path, err := filepath.Abs(strings.TrimPrefix(arg, "file://"))
	if err != nil {
		return "", usageError("invalid photo path %q: %v", arg, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", usageError("photo %s: %v", arg, err)
	}
	if info.IsDir() {
		return "", usageError("photo %s is a directory", arg)
	}
	return path, nil
}
