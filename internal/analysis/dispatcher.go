package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/AIwolfie/waybackwolf/internal/model"
)

// maxPromptContent bounds the content excerpt handed to a model.
const maxPromptContent = 4000

// promptHeader frames the excerpt for the model.
const promptHeader = "Analyze the following content for sensitive or confidential data " +
	"(e.g., PII, credentials, financial info, private keys). " +
	"State clearly whether sensitive data is present and provide a brief summary.\n\nContent:\n\n"

// ErrAllProvidersFailed reports that every backend in the chain failed.
var ErrAllProvidersFailed = errors.New("all analysis backends failed")

// categoryKeywords maps verdict categories to the phrases that signal
// them in a model reply. The set is open: new categories only need a
// row here.
var categoryKeywords = map[string][]string{
	"credentials": {"password", "credential", "login", "authentication token", "api key", "secret key"},
	"pii":         {"pii", "personally identifiable", "personal information", "email address", "phone number", "social security"},
	"financial":   {"financial", "credit card", "bank account", "iban", "payment"},
	"keys":        {"private key", "ssh key", "pgp", "certificate key", "api key"},
}

// Dispatcher runs content through a fallback chain of providers and
// turns the reply into a verdict.
type Dispatcher struct {
	chain  []Provider
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. Providers are tried in the given
// order; the first to answer wins.
func NewDispatcher(chain []Provider, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{chain: chain, logger: logger}
}

// Analyze submits the content to the provider chain and parses the
// first reply into a verdict. It fails only when every backend fails
// or the context ends.
func (d *Dispatcher) Analyze(ctx context.Context, rawURL, content string) (*model.AnalysisVerdict, error) {
	if len(d.chain) == 0 {
		return nil, ErrAllProvidersFailed
	}

	prompt := buildPrompt(content)

	var lastErr error
	for _, provider := range d.chain {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		reply, err := provider.Analyze(ctx, prompt)
		if err != nil {
			lastErr = err
			d.logger.Warn("analysis backend failed, trying next",
				"backend", provider.Name(),
				"url", rawURL,
				"error", err,
			)
			continue
		}

		verdict := ParseVerdict(reply)
		verdict.URL = rawURL
		verdict.Provider = provider.Name()
		return verdict, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, lastErr)
}

// buildPrompt frames a bounded excerpt of the content. The cut backs
// up to a rune boundary so multibyte text is never split mid-sequence.
func buildPrompt(content string) string {
	if len(content) > maxPromptContent {
		cut := maxPromptContent
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return promptHeader + content
}

// negations are phrasings that declare content clean. Checked before
// the positive match, since "no sensitive data" contains "sensitive".
var negations = []string{
	"no sensitive",
	"not sensitive",
	"no confidential",
	"not confidential",
	"does not contain sensitive",
	"nothing sensitive",
	"free of sensitive",
}

// ParseVerdict reads a model reply into a verdict. The reply counts as
// sensitive when it asserts sensitivity without negating it, or when a
// category keyword appears; matched categories are recorded in
// canonical order.
func ParseVerdict(reply string) *model.AnalysisVerdict {
	lower := strings.ToLower(reply)

	negated := false
	for _, phrase := range negations {
		if strings.Contains(lower, phrase) {
			negated = true
			break
		}
	}

	var categories []string
	if !negated {
		for _, category := range []string{"credentials", "pii", "financial", "keys"} {
			for _, keyword := range categoryKeywords[category] {
				if strings.Contains(lower, keyword) {
					categories = append(categories, category)
					break
				}
			}
		}
	}

	sensitive := len(categories) > 0
	if !negated && strings.Contains(lower, "sensitive") {
		sensitive = true
	}

	return &model.AnalysisVerdict{
		Sensitive:  sensitive,
		Categories: categories,
		RawSummary: strings.TrimSpace(reply),
	}
}
