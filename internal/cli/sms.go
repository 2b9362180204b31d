package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/license"
	"github.com/roach88/szerviz/internal/sms"
)

// SMSOptions holds flags for the sms command.
type SMSOptions struct {
	*RootOptions
	Kind      string
	Diagnosis string
	Template  int
	Beautify  bool
}

// SMSResult is the sms payload.
type SMSResult struct {
	Kind      sms.Kind `json:"kind"`
	Phone     string   `json:"phone"`
	Body      string   `json:"body"`
	URI       string   `json:"uri"`
	PhotoURLs []string `json:"photoUrls"`
	Offline   bool     `json:"offline"`
}

// NewSMSCommand creates the sms command.
func NewSMSCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SMSOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sms <id|plate>",
		Short: "Compose the customer SMS",
		Long: `Compose a customer SMS and print it with an sms: link that opens the
messaging app. Nothing is sent.

Kinds:
  diagnosis  findings, cost estimate and photo links (needs --diagnosis or --template)
  finished   the car is ready, with the amount due
  start      work has started

Pending photos are uploaded first when online. Offline, the message notes
that photos could not be attached.

Example:
  szerviz sms ABC-123 --kind diagnosis --diagnosis "fékbetét csere"
  szerviz sms ABC-123 --kind diagnosis --template 2 --beautify
  szerviz sms ABC-123 --kind finished`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSMS(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "diagnosis", "message kind (diagnosis|finished|start)")
	cmd.Flags().StringVar(&opts.Diagnosis, "diagnosis", "", "diagnosis text")
	cmd.Flags().IntVar(&opts.Template, "template", 0, "use quick template N (see `szerviz templates`)")
	cmd.Flags().BoolVar(&opts.Beautify, "beautify", false, "rewrite the diagnosis in a friendlier tone (PRO)")

	return cmd
}

func runSMS(opts *SMSOptions, ref string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.settings()
	if err != nil {
		return err
	}
	kind, err := sms.ParseKind(opts.Kind)
	if err != nil {
		return a.out.Fail(usageError("%v", err))
	}
	rec, err := a.resolve(ref)
	if err != nil {
		return err
	}

	diagnosis := strings.TrimSpace(opts.Diagnosis)
	if opts.Template != 0 {
		templates := a.mgr.Templates()
		if opts.Template < 1 || opts.Template > len(templates) {
			return a.out.Fail(usageError("template %d does not exist (have %d)", opts.Template, len(templates)))
		}
		diagnosis = templates[opts.Template-1]
	}

	req := sms.Request{
		Kind:      kind,
		Diagnosis: diagnosis,
		Plate:     rec.LicensePlate,
		Quote:     rec.Quote(),
		ShopName:  settings.ShopName,
	}
	if err := req.Validate(); err != nil {
		return a.out.Fail(err)
	}

	if opts.Beautify && kind == sms.KindDiagnosis {
		if err := license.Require(license.FeatureAI, &settings); err != nil {
			return a.out.Fail(err)
		}
		req.Diagnosis = a.rewriter(cmd.Context()).BeautifyDiagnosis(cmd.Context(), req.Diagnosis)
	}

	rc, err := a.reconciler(cmd.Context())
	if err != nil {
		return err
	}
	res, err := rc.Reconcile(cmd.Context(), rec)
	if err != nil {
		return a.out.Fail(WrapExitError(ExitFailure, ErrCodeGeneric, fmt.Errorf("photo upload interrupted: %w", err)))
	}
	if !res.Offline {
		req.PhotoURLs = res.RemoteURLs
	}

	body := sms.Compose(req)
	if res.Offline && len(rec.Photos) > 0 {
		body += sms.OfflineNote
	}

	result := SMSResult{
		Kind:      kind,
		Phone:     rec.Phone,
		Body:      body,
		URI:       sms.IntentURI(rec.Phone, body),
		PhotoURLs: req.PhotoURLs,
		Offline:   res.Offline,
	}
	if result.PhotoURLs == nil {
		result.PhotoURLs = []string{}
	}

	if a.out.Format == "json" {
		return a.out.Success(result)
	}
	w := a.out.Writer
	fmt.Fprintf(w, "To: %s\n\n%s\n\n%s\n", result.Phone, result.Body, result.URI)
	if res.Pending > 0 && !res.Offline {
		a.out.Notice("%d photo(s) could not be uploaded and were left out; run `szerviz sync` later.", res.Pending)
	}
	return nil
}

// templateIndex parses a 1-based template number.
func templateIndex(arg string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > count {
		return 0, usageError("template %q does not exist (have %d)", arg, count)
	}
	return n - 1, nil
}
