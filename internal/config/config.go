package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Network defaults follow typical clearnet
// latency; the worker counts are upper bounds that the resource monitor
// may scale down at startup.
const (
	// DefaultURLWorkers is the requested size of the liveness-check pool.
	DefaultURLWorkers = 10

	// DefaultArchiveWorkers is the requested size of the archive-lookup
	// pool. Kept smaller than the URL pool because the Wayback CDX API
	// rate-limits aggressive clients.
	DefaultArchiveWorkers = 5

	// DefaultConnectTimeout bounds TCP/TLS establishment per request.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultReadTimeout bounds reading a response once connected.
	DefaultReadTimeout = 10 * time.Second

	// DefaultMaxAttempts is the retry budget for transient failures.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the first backoff step; subsequent
	// attempts double it.
	DefaultRetryBaseDelay = 2 * time.Second

	// DefaultMaxBodySize limits response bodies cached for analysis.
	// 5MB covers documents worth analyzing while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultShutdownGrace is how long in-flight requests may run after
	// a quit signal before the run is abandoned.
	DefaultShutdownGrace = 15 * time.Second

	// DefaultUserAgent identifies WaybackWolf in HTTP requests.
	DefaultUserAgent = "WaybackWolf/1.0 (+https://github.com/AIwolfie/waybackwolf)"

	// AppName is the application name used for XDG directory paths.
	AppName = "waybackwolf"
)

// AI backend selectors accepted by --ai.
const (
	BackendChatGPT  = "chatgpt"
	BackendGrok     = "grok"
	BackendDeepSeek = "deepseek"
)

// Config holds all options for one audit run.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// InputPath is the file with one URL per line. Required unless
	// URLs are passed as positional arguments.
	InputPath string

	// Targets are URLs given directly on the command line. They are
	// merged with (and deduplicated against) the input file.
	Targets []string

	// OutputPath is the plain-text report destination. Empty disables
	// the file; the terminal report is always printed.
	OutputPath string

	// JSONPath is the JSON report destination. Empty disables it.
	JSONPath string

	// MarkdownPath is the Markdown report destination. Empty disables it.
	MarkdownPath string

	// Domain restricts auditing to this domain and its subdomains.
	Domain string

	// URLWorkers is the requested liveness-check pool size. The
	// effective size may be lower after resource sampling.
	URLWorkers int

	// ArchiveWorkers is the requested archive-lookup pool size.
	ArchiveWorkers int

	// AIBackend selects the analysis provider: chatgpt, grok or
	// deepseek. Empty disables content analysis.
	AIBackend string

	// AnalysisExtensions is the set of extensions forwarded to analysis.
	// Empty with an AIBackend set means the default sensitive set.
	AnalysisExtensions []string

	// Interactive enables the live display with pause/skip/quit keys.
	Interactive bool

	// ConnectTimeout bounds connection establishment per request.
	ConnectTimeout time.Duration

	// ReadTimeout bounds response reads per request.
	ReadTimeout time.Duration

	// MaxAttempts is the per-request retry budget for transient failures.
	MaxAttempts int

	// RetryBaseDelay is the initial backoff delay.
	RetryBaseDelay time.Duration

	// ClearCache empties the content cache before any workers start.
	ClearCache bool

	// CacheDir is the directory of the cache's backing store.
	// Defaults to the XDG cache directory.
	CacheDir string

	// CacheTTL expires cache entries older than this. Zero keeps
	// entries until explicitly cleared.
	CacheTTL time.Duration

	// CredentialsPath is an explicit credentials file path. Empty
	// triggers the default search order (see FindCredentialsFile).
	CredentialsPath string

	// MaxBodySize limits cached response bodies, in bytes.
	MaxBodySize int64

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// ShutdownGrace bounds how long in-flight work may continue after
	// cancellation.
	ShutdownGrace time.Duration

	// Verbose enables slog.LevelDebug output.
	Verbose bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero. This also documents the defaults.
func NewConfig() *Config {
	return &Config{
		URLWorkers:     DefaultURLWorkers,
		ArchiveWorkers: DefaultArchiveWorkers,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		RetryBaseDelay: DefaultRetryBaseDelay,
		CacheDir:       XDGCacheDir(),
		MaxBodySize:    DefaultMaxBodySize,
		UserAgent:      DefaultUserAgent,
		ShutdownGrace:  DefaultShutdownGrace,
	}
}

// XDGCacheDir returns the XDG cache directory for WaybackWolf.
// On Linux: ~/.cache/waybackwolf
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for WaybackWolf.
// On Linux: ~/.config/waybackwolf
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// AnalysisEnabled reports whether content analysis should run.
func (c *Config) AnalysisEnabled() bool {
	return c.AIBackend != ""
}

// NormalizeExtensions lowercases the analysis extensions and ensures the
// leading dot, so "--extensions sql .JSON" and "--extensions .sql .json"
// behave identically.
func (c *Config) NormalizeExtensions() {
	for i, ext := range c.AnalysisExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.AnalysisExtensions[i] = ext
	}
}

// Validate checks the configuration and returns the first problem found.
// It is called once after CLI parsing, before any workers start.
func (c *Config) Validate() error {
	if c.InputPath == "" && len(c.Targets) == 0 {
		return ErrNoInput
	}
	if c.URLWorkers <= 0 || c.ArchiveWorkers <= 0 {
		return ErrInvalidWorkers
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidAttempts
	}
	switch c.AIBackend {
	case "", BackendChatGPT, BackendGrok, BackendDeepSeek:
	default:
		return ErrUnknownBackend
	}
	if len(c.AnalysisExtensions) > 0 && !c.AnalysisEnabled() {
		return ErrExtensionsWithoutBackend
	}
	return nil
}
