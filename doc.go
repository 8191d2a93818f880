// Package sympto suggests candidate diseases from free-text symptom
// descriptions. It combines a symptom-disease knowledge graph with a
// trained text classifier, canonicalizes noisy symptom phrasings with
// embeddings, and can explain its suggestions from retrieved disease
// reference documents.
//
// The root package is a facade: construct a Client over a graph.Store
// and a phrase extractor, then call Diagnose. The pkg/ tree holds the
// building blocks and cmd/sympto the CLI and HTTP server.
//
// Output is decision support, not a medical diagnosis.
package sympto
