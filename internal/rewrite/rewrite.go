// Package rewrite polishes mechanic-written text with a generative model.
//
// Both operations fail open: when the model is unavailable, errors, or
// returns nothing, the caller gets the input back unchanged.
package rewrite

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Service wraps a Generator with the shop's prompts.
type Service struct {
	gen    Generator
	model  string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

// WithLogger sets the logger used for generator failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service. A nil generator makes every call return its input.
func New(gen Generator, opts ...Option) *Service {
	s := &Service{gen: gen, model: DefaultModel, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeautifyDiagnosis rewrites a raw diagnosis into a friendlier,
// customer-facing sentence without changing the facts.
func (s *Service) BeautifyDiagnosis(ctx context.Context, raw string) string {
	return s.run(ctx, "beautify", BeautifyPrompt(raw), raw)
}

// ImproveTemplate turns a short mechanic note into a concise quick
// diagnosis label.
func (s *Service) ImproveTemplate(ctx context.Context, raw string) string {
	return s.run(ctx, "improve", ImprovePrompt(raw), raw)
}

func (s *Service) run(ctx context.Context, op, prompt, raw string) string {
	if s == nil || s.gen == nil || strings.TrimSpace(raw) == "" {
		return raw
	}
	out, err := s.gen.Generate(ctx, s.model, prompt)
	if err != nil {
		s.logger.Warn("text rewrite failed, keeping original", "op", op, "model", s.model, "error", err)
		return raw
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return raw
	}
	return out
}

// BeautifyPrompt builds the diagnosis rewrite prompt.
func BeautifyPrompt(raw string) string {
	return "Feladat: Fogalmazd át az alábbi autószerelői diagnózist barátságosabb, bizalomgerjesztő, de szakmai stílusra.\n" +
		"Szabály: Ne változtass a tényeken, csak a stíluson. Legyen gördülékeny, magyaros mondat.\n" +
		"Bemenet: \"" + raw + "\"\n" +
		"Kimenet: Csak az átfogalmazott szöveg."
}

// ImprovePrompt builds the quick-diagnosis label prompt.
func ImprovePrompt(raw string) string {
	return "Feladat: Alakítsd át ezt a rövid szerelői jegyzetet egy profi, rövid \"Gyors Diagnózis\" gomb felirattá.\n" +
		"Bemenet: \"" + raw + "\"\n" +
		"Példa bemenet: \"büdös klíma\" -> Példa kimenet: \"Klímatisztítás és fertőtlenítés szükséges\"\n" +
		"Szabály: Max 4-6 szó legyen. Legyen szakmai.\n" +
		"Kimenet: Csak a szöveg."
}
