// Package analysis asks an AI backend whether recovered content holds
// sensitive data.
//
// All supported backends speak the OpenAI chat-completion protocol and
// differ only in base URL and model, so one client implementation
// covers ChatGPT, Grok and DeepSeek. Backends are tried in a fallback
// chain; a run never fails because a model endpoint is down — the URL
// just ships without a verdict.
package analysis
