// Package config holds the runtime configuration for WaybackWolf.
//
// Configuration comes from two places:
//   - CLI flags, collected into the Config struct by the cmd package
//   - A YAML credentials file holding AI provider API keys, loaded once
//     at startup (see LoadCredentials)
//
// Design decision: Config is populated from CLI flags and passed through
// the application via dependency injection rather than global state. It is
// validated once, before any workers start, so invalid configurations fail
// fast with a clear message.
package config
