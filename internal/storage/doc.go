// Package storage compresses save blobs and keeps them in named slots.
//
// Ownership boundary:
// - Compressor wraps a blob for disk; the engine never sees compressed bytes.
// - Store persists opaque bytes under a slot name. FileStore writes through a
//   temp file and rename so a failed write never replaces an existing slot.
// - SQLiteStore keeps slots in one database file for hosts that prefer a
//   single artifact.
package storage
