// Package engine saves a live graph into a document blob and reconciles a
// blob back onto a live graph.
//
// Ownership boundary:
// - Collect is a pure walk from the live graph to a Snapshot; it does not
//   mutate the host.
// - Engine owns one document tree and buffer per Save or Load call. Callers
//   serialize Save and Load against the same host.
// - Per-record failures are isolated into a Report; only stream corruption,
//   missing registries, incompatible formats and recovered panics abort.
// - Compression and storage of the blob belong to internal/storage.
package engine
