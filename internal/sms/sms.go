// Package sms builds the customer text messages and the hand-off link
// that opens them in the phone's messaging app. Nothing here sends a
// message.
package sms

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/szerviz/internal/model"
)

// Kind selects the message template.
type Kind string

const (
	// KindDiagnosis asks the customer to approve a repair quote.
	KindDiagnosis Kind = "DIAGNOSIS"

	// KindFinished tells the customer the car is ready for pickup.
	KindFinished Kind = "FINISHED"

	// KindStart tells the customer work has begun.
	KindStart Kind = "START"
)

// OfflineNote is appended by callers when the record has photos that could
// not be linked because there was no connection.
const OfflineNote = "\n(A fotókat internet hiánya miatt nem tudtuk csatolni.)"

// ErrDiagnosisRequired is returned by Validate for a DIAGNOSIS request
// without diagnosis text.
var ErrDiagnosisRequired = errors.New("diagnosis text is required for a DIAGNOSIS message")

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindDiagnosis, KindFinished, KindStart:
		return k, nil
	}
	return "", fmt.Errorf("unknown message kind %q (want diagnosis, finished or start)", s)
}

// Request carries everything a message may mention.
type Request struct {
	Kind      Kind
	Diagnosis string
	Plate     string
	Quote     model.Quote
	PhotoURLs []string
	ShopName  string
}

// Validate reports requests the composer would render meaninglessly.
func (r Request) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r.Kind == KindDiagnosis && strings.TrimSpace(r.Diagnosis) == "" {
		return ErrDiagnosisRequired
	}
	return nil
}

var huPrinter = message.NewPrinter(language.Hungarian)

// FormatAmount renders a whole-forint amount with Hungarian digit grouping
// and the Ft suffix.
func FormatAmount(n int64) string {
	return huPrinter.Sprintf("%d", n) + " Ft"
}

// Compose renders the message body. Equal requests give byte-identical
// output. Amounts use Hungarian digit grouping and the Ft suffix. Only
// DIAGNOSIS messages list photo links.
func Compose(req Request) string {
	ft := FormatAmount
	total := req.Quote.Total()
	var b strings.Builder

	switch req.Kind {
	case KindDiagnosis:
		fmt.Fprintf(&b, "Üdvözlöm! Átvizsgáltuk a %s autóját a %s-nél. A következő beavatkozás szükséges: %s.",
			req.Plate, req.ShopName, strings.TrimSpace(req.Diagnosis))
		switch {
		case req.Quote.Itemized():
			fmt.Fprintf(&b, " A várható költségek: Alkatrész: %s, Munkadíj: %s. Összesen: %s.",
				ft(req.Quote.Parts), ft(req.Quote.Labor), ft(total))
		case total != 0:
			fmt.Fprintf(&b, " A javítás várható költsége: %s.", ft(total))
		}
		b.WriteString(" Kérjük, válasz SMS-ben jelezze, hogy elfogadja-e a javítást!")
		if len(req.PhotoURLs) > 0 {
			b.WriteString("\n\nFotók a munkáról:\n")
			b.WriteString(strings.Join(req.PhotoURLs, "\n"))
		}

	case KindFinished:
		fmt.Fprintf(&b, "Tisztelt Ügyfelünk! A %s rendszámú autója elkészült, a javítás befejeződött a %s-nél.",
			req.Plate, req.ShopName)
		if total != 0 {
			fmt.Fprintf(&b, " A fizetendő végösszeg: %s.", ft(total))
		}
		b.WriteString(" Várjuk szervizünkben, az autó átvehető. Üdvözlettel!")

	case KindStart:
		fmt.Fprintf(&b, "Tisztelt Ügyfelünk! Tájékoztatjuk, hogy a %s rendszámú autóján a javítási munkálatokat megkezdtük a %s-nél. Amint elkészül, azonnal értesítjük.",
			req.Plate, req.ShopName)
	}

	return b.String()
}

// IntentURI returns the "sms:" link that opens the messaging app with the
// body pre-filled.
func IntentURI(phone, body string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	return "sms:" + phone + "?body=" + strings.ReplaceAll(url.QueryEscape(body), "+", "%20")
}
