package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Intake limits enforced before a record may be created.
const (
	MinPlateLength = 3
	MinPhoneLength = 8 // phone must be longer than 7 characters
)

var plateRx = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Intake is the customer-entered data for a new record.
type Intake struct {
	Name         string `json:"name"`
	LicensePlate string `json:"licensePlate"`
	Phone        string `json:"phone"`
	IsUrgent     bool   `json:"isUrgent"`
	GDPRAccepted bool   `json:"gdprAccepted"`
}

// ValidationError reports the first intake field that blocks creation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Normalize returns the intake with plate and phone formatted the way they
// are stored, and free text NFC normalized.
func (in Intake) Normalize() Intake {
	in.Name = norm.NFC.String(strings.TrimSpace(in.Name))
	in.LicensePlate = NormalizePlate(strings.TrimSpace(in.LicensePlate))
	in.Phone = NormalizePhone(strings.TrimSpace(in.Phone))
	return in
}

// Validate checks the normalized intake against the creation contract.
func (in Intake) Validate() error {
	n := in.Normalize()
	if n.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if len([]rune(n.LicensePlate)) < MinPlateLength {
		return &ValidationError{Field: "licensePlate", Message: fmt.Sprintf("must be at least %d characters", MinPlateLength)}
	}
	if len(n.Phone) < MinPhoneLength {
		return &ValidationError{Field: "phone", Message: fmt.Sprintf("must be longer than %d characters", MinPhoneLength-1)}
	}
	if !n.GDPRAccepted {
		return &ValidationError{Field: "gdprAccepted", Message: "customer consent is required"}
	}
	return nil
}

// NormalizePlate uppercases a license plate and, when it is exactly six
// alphanumeric characters, splits it 3+3 with a dash ("AB1234" -> "AB1-234").
// Anything else is returned uppercased only.
func NormalizePlate(s string) string {
	clean := cases.Upper(language.Hungarian).String(s)
	if plateRx.MatchString(clean) {
		return clean[:3] + "-" + clean[3:]
	}
	return clean
}

// NormalizePhone keeps digits, '+' and spaces.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' || r == ' ' {
			return r
		}
		return -1
	}, s)
}

// ParseCost reads a whole-unit amount, ignoring every non-digit ("12 500 Ft" -> 12500).
// Empty or digit-less input is 0. Amounts that do not fit in an int64 are an
// error.
func ParseCost(s string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "cost", Message: fmt.Sprintf("%q is too large", strings.TrimSpace(s))}
	}
	return n, nil
}
