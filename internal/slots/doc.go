// Package slots ties the engine to a store: named save slots with
// compression, reported as success or failure to the caller.
//
// Ownership boundary:
// - Manager serializes Save and Load calls; one operation is in flight at a
//   time.
// - A slot is only written after the engine produced a complete blob.
package slots
