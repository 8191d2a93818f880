// Package nlp wraps OpenAI-compatible chat APIs behind a small Client
// interface, with retry, circuit breaking, and JSON repair for model
// output. A local Ollama instance is served through the same client by
// setting BaseURL.
package nlp
