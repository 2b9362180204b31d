package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/szerviz/internal/license"
	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/store"
)

// Settings returns the shop settings and whether onboarding has happened.
func (m *Manager) Settings() (model.ShopSettings, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Settings == nil {
		return model.ShopSettings{}, false
	}
	return *m.state.Settings, true
}

// Onboard creates the shop settings. An empty theme color uses the default.
func (m *Manager) Onboard(ctx context.Context, shopName, themeColor string) (model.ShopSettings, error) {
	shopName = norm.NFC.String(strings.TrimSpace(shopName))
	if shopName == "" {
		return model.ShopSettings{}, invalidInput("shop name is required", nil)
	}

	settings := store.NewSettings(shopName, strings.TrimSpace(themeColor))
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		if next.Settings != nil {
			return &Error{Code: ErrCodeAlreadyOnboarded, Message: fmt.Sprintf("shop %q is already set up", next.Settings.ShopName)}
		}
		next.Settings = &settings
		return nil
	})
	if err != nil {
		return model.ShopSettings{}, err
	}
	m.logger.Info("shop onboarded", "shop", shopName)
	return settings, nil
}

// UpdateSettings applies fn to a copy of the settings and persists it.
// The backup counter and PRO flag are not changed this way.
func (m *Manager) UpdateSettings(ctx context.Context, fn func(*model.ShopSettings)) (model.ShopSettings, error) {
	var out model.ShopSettings
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		if next.Settings == nil {
			return errNotOnboarded
		}
		upd := *next.Settings
		fn(&upd)
		upd.ShopName = norm.NFC.String(strings.TrimSpace(upd.ShopName))
		if upd.ShopName == "" {
			return invalidInput("shop name is required", nil)
		}
		if !model.ValidTextures[upd.Texture] {
			return invalidInput(fmt.Sprintf("unknown texture %q", upd.Texture), nil)
		}
		upd.ClientCountSinceBackup = next.Settings.ClientCountSinceBackup
		upd.IsPro = next.Settings.IsPro
		next.Settings = &upd
		out = upd
		return nil
	})
	return out, err
}

// ActivatePro enables PRO features when key matches the configured
// license key.
func (m *Manager) ActivatePro(ctx context.Context, key string) (model.ShopSettings, error) {
	if !license.Matches(m.licenseKey, key) {
		return model.ShopSettings{}, &Error{Code: ErrCodeInvalidLicense, Message: "license key not recognized"}
	}
	var out model.ShopSettings
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		if next.Settings == nil {
			return errNotOnboarded
		}
		next.Settings.IsPro = true
		out = *next.Settings
		return nil
	})
	if err == nil {
		m.logger.Info("pro license activated")
	}
	return out, err
}

// Templates returns the quick-text list in order.
func (m *Manager) Templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.state.Templates))
	copy(out, m.state.Templates)
	return out
}

// AddTemplate appends a quick text.
func (m *Manager) AddTemplate(ctx context.Context, text string) ([]string, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return nil, invalidInput("template text is required", nil)
	}
	var out []string
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		next.Templates = append(next.Templates, text)
		out = append([]string(nil), next.Templates...)
		return nil
	})
	return out, err
}

// RemoveTemplate deletes the quick text at index.
func (m *Manager) RemoveTemplate(ctx context.Context, index int) ([]string, error) {
	var out []string
	err := m.mutate(ctx, func(next *model.Snapshot) error {
		if index < 0 || index >= len(next.Templates) {
			return invalidInput(fmt.Sprintf("template index %d out of range", index), nil)
		}
		next.Templates = append(next.Templates[:index], next.Templates[index+1:]...)
		out = append([]string{}, next.Templates...)
		return nil
	})
	return out, err
}
