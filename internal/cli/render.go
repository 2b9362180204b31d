package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/sms"
)

var ft = sms.FormatAmount

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusLabel(r model.ClientRecord) string {
	switch {
	case r.Status == model.StatusFinished:
		return "finished"
	case r.IsUrgent:
		return "URGENT"
	default:
		return "active"
	}
}

// writeRecordLine prints the one-line dashboard form of a record.
func writeRecordLine(w io.Writer, r model.ClientRecord) {
	fmt.Fprintf(w, "  %-8s  %-9s  %-8s  %-24s  %s", shortID(r.ID), r.LicensePlate, statusLabel(r), r.Name, r.Phone)
	if total := r.Quote().Total(); total != 0 {
		fmt.Fprintf(w, "  %s", ft(total))
	}
	if pending := pendingPhotos(r); pending > 0 {
		fmt.Fprintf(w, "  (%d photo(s) pending)", pending)
	}
	fmt.Fprintln(w)
}

func pendingPhotos(r model.ClientRecord) int {
	n := 0
	for _, p := range r.Photos {
		if p.Status == model.PhotoPendingUpload {
			n++
		}
	}
	return n
}

// writeRecordDetail prints every field of a record.
func writeRecordDetail(w io.Writer, r model.ClientRecord) {
	fmt.Fprintf(w, "%s  %s\n", r.LicensePlate, strings.ToUpper(statusLabel(r)))
	fmt.Fprintf(w, "  id:       %s\n", r.ID)
	fmt.Fprintf(w, "  name:     %s\n", r.Name)
	fmt.Fprintf(w, "  phone:    %s\n", r.Phone)
	fmt.Fprintf(w, "  created:  %s\n", time.UnixMilli(r.CreatedAt).Local().Format("2006-01-02 15:04"))

	q := r.Quote()
	switch {
	case q.Itemized():
		fmt.Fprintf(w, "  quote:    %s (parts %s, labor %s)\n", ft(q.Total()), ft(q.Parts), ft(q.Labor))
	case q.Total() != 0:
		fmt.Fprintf(w, "  quote:    %s\n", ft(q.Total()))
	default:
		fmt.Fprintln(w, "  quote:    -")
	}

	if len(r.Photos) == 0 {
		fmt.Fprintln(w, "  photos:   none")
		return
	}
	fmt.Fprintf(w, "  photos:   %d\n", len(r.Photos))
	for _, p := range r.Photos {
		where := p.RemoteURL
		if where == "" {
			where = p.LocalURL
		}
		fmt.Fprintf(w, "    %s  %-14s  %s", p.ID, p.Status, where)
		if p.LastError != "" {
			fmt.Fprintf(w, "  [%d attempt(s): %s]", p.Attempts, p.LastError)
		}
		fmt.Fprintln(w)
	}
}

// writeSettings prints the shop settings.
func writeSettings(w io.Writer, s model.ShopSettings) {
	plan := "free"
	if s.IsPro {
		plan = "PRO"
	}
	fmt.Fprintf(w, "%s\n", s.ShopName)
	fmt.Fprintf(w, "  plan:          %s\n", plan)
	fmt.Fprintf(w, "  theme color:   %s\n", s.ThemeColor)
	fmt.Fprintf(w, "  dark mode:     %t\n", s.DarkMode)
	fmt.Fprintf(w, "  texture:       %s\n", s.Texture)
	if s.LogoURL != "" {
		fmt.Fprintf(w, "  logo:          %s\n", s.LogoURL)
	}
	fmt.Fprintf(w, "  since backup:  %d client(s)\n", s.ClientCountSinceBackup)
}
