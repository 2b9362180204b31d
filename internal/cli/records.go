package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/license"
	"github.com/roach88/szerviz/internal/model"
)

// IntakeOptions holds flags for the intake command.
type IntakeOptions struct {
	*RootOptions
	Name   string
	Plate  string
	Phone  string
	Urgent bool
	GDPR   bool
}

// NewIntakeCommand creates the intake command.
func NewIntakeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IntakeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Record a new client and vehicle",
		Long: `Record a new client and vehicle. The customer's consent to data handling
(--gdpr) is required. Six-character plates are formatted as ABC-123.

The free plan allows 5 active clients at a time.

Example:
  szerviz intake --name "Kovács Béla" --plate abc123 --phone "+36 30 123 4567" --gdpr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntake(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&opts.Plate, "plate", "", "license plate")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().BoolVar(&opts.Urgent, "urgent", false, "mark the job urgent")
	cmd.Flags().BoolVar(&opts.GDPR, "gdpr", false, "customer accepted the data handling terms")

	return cmd
}

func runIntake(opts *IntakeOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	if s, ok := a.mgr.Settings(); ok {
		if err := license.CheckStartClient(&s, a.mgr.ActiveCount()); err != nil {
			return a.out.Fail(err)
		}
	}

	rec, err := a.mgr.CreateRecord(cmd.Context(), model.Intake{
		Name:         opts.Name,
		LicensePlate: opts.Plate,
		Phone:        opts.Phone,
		IsUrgent:     opts.Urgent,
		GDPRAccepted: opts.GDPR,
	})
	if err != nil {
		return a.out.Fail(err)
	}

	if a.out.Format == "json" {
		return a.out.Success(rec)
	}
	fmt.Fprintf(a.out.Writer, "✓ Client recorded: %s (%s)\n", rec.LicensePlate, rec.ID)
	return nil
}

// ListResult is the list command's payload.
type ListResult struct {
	Records          []model.ClientRecord `json:"records"`
	Active           int                  `json:"active"`
	FinishedThisWeek int                  `json:"finishedThisWeek"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list [search]",
		Short: "List clients, active jobs first",
		Long: `List clients. Active jobs come first, newest first within each group.
The optional search matches name or license plate, ignoring case.

Example:
  szerviz list
  szerviz list kovács --status active`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			var filter model.Status
			switch strings.ToLower(status) {
			case "", "all":
			case "active":
				filter = model.StatusActive
			case "finished":
				filter = model.StatusFinished
			default:
				return a.out.Fail(usageError("invalid status %q: must be one of active, finished, all", status))
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			result := ListResult{
				Records:          []model.ClientRecord{},
				Active:           a.mgr.ActiveCount(),
				FinishedThisWeek: a.mgr.WeeklyFinished(),
			}
			for _, r := range a.mgr.List(query) {
				if filter == "" || r.Status == filter {
					result.Records = append(result.Records, r)
				}
			}

			if a.out.Format == "json" {
				return a.out.Success(result)
			}
			fmt.Fprintf(a.out.Writer, "%d active, %d finished this week\n", result.Active, result.FinishedThisWeek)
			if len(result.Records) == 0 {
				fmt.Fprintln(a.out.Writer, "No clients found.")
				return nil
			}
			for _, r := range result.Records {
				writeRecordLine(a.out.Writer, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "all", "filter by status (active|finished|all)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id|plate>",
		Short: "Show one client's job",
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
			if a.out.Format == "json" {
				return a.out.Success(rec)
			}
			writeRecordDetail(a.out.Writer, rec)
			return nil
		},
	}

	return cmd
}

// NewFinishCommand creates the finish command.
func NewFinishCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finish <id|plate>",
		Short: "Mark a job finished",
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
			rec, err = a.mgr.MarkFinished(cmd.Context(), rec.ID)
			if err != nil {
				return a.out.Fail(err)
			}
			if a.out.Format == "json" {
				return a.out.Success(rec)
			}
			fmt.Fprintf(a.out.Writer, "✓ %s finished.\n", rec.LicensePlate)
			return nil
		},
	}

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id|plate>",
		Short: "Delete a client permanently",
		Long: `Delete a client and its photos permanently. Requires --yes.

Example:
  szerviz delete ABC-123 --yes`,
		Args: cobra.ExactArgs(1),
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
			if !yes {
				return a.out.Fail(usageError("refusing to delete %s (%s) without --yes", rec.LicensePlate, rec.Name))
			}
			if err := a.mgr.DeleteRecord(cmd.Context(), rec.ID); err != nil {
				return a.out.Fail(err)
			}
			if a.out.Format == "json" {
				return a.out.Success(map[string]string{"deleted": rec.ID})
			}
			fmt.Fprintf(a.out.Writer, "✓ Deleted %s (%s).\n", rec.LicensePlate, rec.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}

// QuoteOptions holds flags for the quote command.
type QuoteOptions struct {
	*RootOptions
	Estimate  string
	Labor     string
	Parts     string
	Breakdown bool
}

// NewQuoteCommand creates the quote command.
func NewQuoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "quote <id|plate>",
		Short: "Set the cost estimate",
		Long: `Set the cost estimate of a job, either as one total or as parts + labor.
Giving --labor or --parts switches to the itemized breakdown; --breakdown=false
switches back to a single total and keeps the last computed sum.

Amounts ignore everything but digits, so "12 500 Ft" is accepted.

Example:
  szerviz quote ABC-123 --estimate 45000
  szerviz quote ABC-123 --parts 30000 --labor 15000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Estimate, "estimate", "", "total estimate")
	cmd.Flags().StringVar(&opts.Labor, "labor", "", "labor cost")
	cmd.Flags().StringVar(&opts.Parts, "parts", "", "parts cost")
	cmd.Flags().BoolVar(&opts.Breakdown, "breakdown", false, "itemize as parts + labor")

	return cmd
}

func runQuote(opts *QuoteOptions, ref string, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.resolve(ref)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	q := rec.Quote()
	costs := []struct {
		flag  string
		value string
		dst   *int64
	}{
		{"estimate", opts.Estimate, &q.Estimated},
		{"labor", opts.Labor, &q.Labor},
		{"parts", opts.Parts, &q.Parts},
	}
	for _, c := range costs {
		if !flags.Changed(c.flag) {
			continue
		}
		n, err := model.ParseCost(c.value)
		if err != nil {
			return a.out.Fail(usageError("invalid --%s: %v", c.flag, err))
		}
		*c.dst = n
		if c.flag != "estimate" {
			q.UseBreakdown = true
		}
	}
	if flags.Changed("breakdown") {
		q.UseBreakdown = opts.Breakdown
	}

	rec, err = a.mgr.SetQuote(cmd.Context(), rec.ID, q)
	if err != nil {
		return a.out.Fail(err)
	}
	if a.out.Format == "json" {
		return a.out.Success(rec.Quote())
	}
	fq := rec.Quote()
	if fq.Itemized() {
		fmt.Fprintf(a.out.Writer, "✓ %s: %s (parts %s, labor %s)\n", rec.LicensePlate, ft(fq.Total()), ft(fq.Parts), ft(fq.Labor))
	} else {
		fmt.Fprintf(a.out.Writer, "✓ %s: %s\n", rec.LicensePlate, ft(fq.Total()))
	}
	return nil
}
