// Package license decides which features a shop may use.
//
// Checks are made by callers before invoking a gated operation; the
// record lifecycle itself never consults them.
package license

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/roach88/szerviz/internal/model"
)

// DefaultKey is the PRO activation key accepted when none is configured.
const DefaultKey = "AUTO-PRO-2024"

// FreeActiveLimit is the number of ACTIVE records a free shop may hold.
const FreeActiveLimit = 5

// Feature is a PRO-gated capability.
type Feature string

const (
	FeatureLogo             Feature = "LOGO"
	FeatureAI               Feature = "AI"
	FeatureUnlimitedClients Feature = "UNLIMITED_CLIENTS"
)

// LimitError is returned by CheckStartClient when the free limit is hit.
type LimitError struct {
	Active int
	Limit  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("free plan allows %d active clients (currently %d); activate PRO to add more", e.Limit, e.Active)
}

// FeatureError reports a PRO feature used without a PRO license.
type FeatureError struct {
	Feature Feature
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s requires a PRO license", e.Feature)
}

// CanUse reports whether settings allow feature. Unknown features and
// missing settings are denied.
func CanUse(feature Feature, settings *model.ShopSettings) bool {
	if settings == nil {
		return false
	}
	switch feature {
	case FeatureLogo, FeatureAI, FeatureUnlimitedClients:
		return settings.IsPro
	}
	return false
}

// Require returns a *FeatureError when feature is not allowed.
func Require(feature Feature, settings *model.ShopSettings) error {
	if CanUse(feature, settings) {
		return nil
	}
	return &FeatureError{Feature: feature}
}

// CanStartClient reports whether another record may be opened given the
// current number of ACTIVE records.
func CanStartClient(settings *model.ShopSettings, active int) bool {
	return CanUse(FeatureUnlimitedClients, settings) || active < FreeActiveLimit
}

// CheckStartClient returns a *LimitError when CanStartClient is false.
func CheckStartClient(settings *model.ShopSettings, active int) error {
	if CanStartClient(settings, active) {
		return nil
	}
	return &LimitError{Active: active, Limit: FreeActiveLimit}
}

// Matches compares a supplied activation key with the configured one,
// ignoring surrounding whitespace. An empty configured key means DefaultKey.
func Matches(configured, supplied string) bool {
	if strings.TrimSpace(configured) == "" {
		configured = DefaultKey
	}
	want := strings.TrimSpace(configured)
	got := strings.TrimSpace(supplied)
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
