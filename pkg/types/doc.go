// Package types defines the shared data structures of the sympto pipeline:
// knowledge graph nodes and edges, disease predictions, and the chat message
// shapes used by the language model layer.
package types
