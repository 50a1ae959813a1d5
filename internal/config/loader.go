package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultCredentialsFile is the credentials file name inside the XDG
// config directory.
const DefaultCredentialsFile = "credentials.yaml"

// legacyCredentialsFile is the dotfile fallback in the home directory.
const legacyCredentialsFile = ".waybackwolf.yaml"

// ProviderCredentials holds the settings for one AI provider.
type ProviderCredentials struct {
	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint. Useful for
	// proxies and for self-hosted OpenAI-compatible servers (e.g., a
	// local Ollama serving DeepSeek).
	BaseURL string `yaml:"base_url,omitempty"`

	// Model overrides the provider's default model name.
	Model string `yaml:"model,omitempty"`
}

// Credentials is the on-disk credentials file, keyed by backend selector.
type Credentials struct {
	ChatGPT  ProviderCredentials `yaml:"chatgpt"`
	Grok     ProviderCredentials `yaml:"grok"`
	DeepSeek ProviderCredentials `yaml:"deepseek"`
}

// For returns the credentials for a backend selector.
func (c *Credentials) For(backend string) ProviderCredentials {
	switch backend {
	case BackendChatGPT:
		return c.ChatGPT
	case BackendGrok:
		return c.Grok
	case BackendDeepSeek:
		return c.DeepSeek
	default:
		return ProviderCredentials{}
	}
}

// LoadCredentials loads the credentials file from the given path.
// Returns ErrCredentialsNotFound when the file does not exist so callers
// can distinguish "not configured" from "broken file".
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided credentials path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("malformed credentials file %s: %w", path, err)
	}
	return &creds, nil
}

// FindCredentialsFile resolves the credentials file path:
//  1. If explicit is set, use it directly
//  2. $XDG_CONFIG_HOME/waybackwolf/credentials.yaml
//  3. ~/.waybackwolf.yaml
//
// Returns an empty string when nothing exists.
func FindCredentialsFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	xdgPath := filepath.Join(XDGConfigDir(), DefaultCredentialsFile)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, legacyCredentialsFile)
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}

	return ""
}

// credentialsTemplate is written by `waybackwolf init`.
const credentialsTemplate = `# WaybackWolf AI provider credentials.
# Only the backend you select with --ai needs a key.
chatgpt:
  api_key: ""
  # model: gpt-3.5-turbo
grok:
  api_key: ""
  # base_url: https://api.x.ai/v1
deepseek:
  api_key: ""
  # Point at a local Ollama instead of the hosted API:
  # base_url: http://localhost:11434/v1
  # model: deepseek-r1
`

// WriteTemplate writes a starter credentials file at path, creating
// parent directories. It refuses to overwrite an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", path)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// 0600: the file holds API keys.
	return os.WriteFile(path, []byte(credentialsTemplate), 0600)
}
