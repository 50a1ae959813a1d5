package analysis

import (
	"fmt"
	"log/slog"

	"github.com/AIwolfie/waybackwolf/internal/config"
)

// fallbackOrder is the canonical backend order for fallbacks.
var fallbackOrder = []string{
	config.BackendChatGPT,
	config.BackendGrok,
	config.BackendDeepSeek,
}

// BuildChain assembles the provider fallback chain: the preferred
// backend first, then every other configured backend in canonical
// order. The preferred backend must have credentials; the rest are
// skipped silently when they don't.
func BuildChain(preferred string, creds *config.Credentials, logger *slog.Logger) ([]Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	primary, err := NewProvider(preferred, creds.For(preferred))
	if err != nil {
		return nil, fmt.Errorf("failed to configure backend %s: %w", preferred, err)
	}
	chain := []Provider{primary}

	for _, backend := range fallbackOrder {
		if backend == preferred {
			continue
		}
		pc := creds.For(backend)
		if pc.APIKey == "" {
			continue
		}
		provider, err := NewProvider(backend, pc)
		if err != nil {
			logger.Warn("skipping misconfigured fallback backend", "backend", backend, "error", err)
			continue
		}
		chain = append(chain, provider)
	}

	return chain, nil
}
