package model

import (
	"net/url"
	"strings"
)

// DefaultAnalysisExtensions lists the file extensions that commonly carry
// sensitive material when exposed on a web server. It is used as the
// candidate set when the user does not narrow analysis with --extensions.
//
// The set covers office documents, database dumps, archives, configuration
// files, and key material.
var DefaultAnalysisExtensions = []string{
	".xls", ".xml", ".xlsx", ".json", ".pdf", ".sql", ".doc", ".docx", ".pptx", ".txt",
	".zip", ".tar.gz", ".tgz", ".bak", ".7z", ".rar", ".log", ".cache", ".secret", ".db",
	".backup", ".yml", ".gz", ".config", ".csv", ".yaml", ".md", ".md5", ".exe", ".dll",
	".bin", ".ini", ".bat", ".sh", ".tar", ".deb", ".rpm", ".iso", ".img", ".apk", ".msi",
	".dmg", ".tmp", ".crt", ".pem", ".key", ".pub", ".asc",
}

// knownExtensions is DefaultAnalysisExtensions as a set for O(1) lookup.
var knownExtensions = func() map[string]bool {
	m := make(map[string]bool, len(DefaultAnalysisExtensions))
	for _, ext := range DefaultAnalysisExtensions {
		m[ext] = true
	}
	return m
}()

// Task is a single URL queued for auditing.
// It is immutable once created; the pipeline never modifies a Task after
// it has been enqueued.
type Task struct {
	// URL is the raw URL as read from the input file.
	URL string `json:"url"`

	// Extension is the recognized file extension of the URL path
	// (e.g., ".sql"). Empty when the path has no extension or the
	// extension is not in the known set. It gates content analysis,
	// never the liveness check itself.
	Extension string `json:"extension,omitempty"`
}

// NewTask creates a Task from a raw URL, deriving its extension.
func NewTask(rawURL string) Task {
	return Task{
		URL:       rawURL,
		Extension: ExtensionOf(rawURL),
	}
}

// ExtensionOf returns the known file extension of the URL path, or an
// empty string. Multi-part extensions such as ".tar.gz" are matched
// before single-part ones.
func ExtensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.ToLower(u.Path)

	// Longest-suffix match so ".tar.gz" wins over ".gz".
	if idx := strings.Index(path, "."); idx < 0 {
		return ""
	}
	var best string
	for i := 0; i < len(path); i++ {
		if path[i] != '.' {
			continue
		}
		if ext := path[i:]; knownExtensions[ext] && len(ext) > len(best) {
			best = ext
		}
	}
	if best != "" {
		return best
	}
	// Unknown extensions are still reported so --extensions can opt in
	// to values outside the default set.
	if idx := strings.LastIndex(path, "."); idx >= 0 && idx < len(path)-1 {
		ext := path[idx:]
		// Reject things that are clearly not extensions (trailing dot
		// directories, version segments like "/v1.2/").
		if !strings.Contains(ext, "/") && len(ext) <= 11 {
			return ext
		}
	}
	return ""
}

// MatchesDomain reports whether the URL's host is the given domain or one
// of its subdomains. An empty domain matches everything.
func MatchesDomain(rawURL, domain string) bool {
	if domain == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// NormalizeURL returns the canonical cache key for a URL: lowercased
// scheme and host, default port stripped, no fragment. Invalid URLs are
// returned unchanged so they still key consistently.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}
	u.Fragment = ""
	return u.String()
}
