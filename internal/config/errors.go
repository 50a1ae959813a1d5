package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and by the credentials loader.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when neither --input nor positional URLs
	// were supplied.
	ErrNoInput = errors.New("no input: provide --input FILE or one or more URLs")

	// ErrInvalidWorkers is returned when a worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAttempts is returned when the retry budget is not positive.
	ErrInvalidAttempts = errors.New("invalid retry attempts: must be positive")

	// ErrUnknownBackend is returned for an unrecognized --ai value.
	ErrUnknownBackend = errors.New("unknown AI backend: expected chatgpt, grok or deepseek")

	// ErrExtensionsWithoutBackend is returned when --extensions is given
	// without --ai; the extension set only gates analysis, so it is
	// meaningless on its own.
	ErrExtensionsWithoutBackend = errors.New("--extensions requires --ai")

	// ErrCredentialsNotFound is returned when no credentials file exists
	// at the explicit or default locations.
	ErrCredentialsNotFound = errors.New("credentials file not found")

	// ErrMissingAPIKey is returned when the selected backend has no API
	// key in the credentials file.
	ErrMissingAPIKey = errors.New("missing API key for selected AI backend")
)
