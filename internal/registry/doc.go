// Package registry holds the frozen table of persistable types.
//
// Ownership boundary:
// - Builder collects explicit registrations at startup: field accessors,
//   save/load hooks, and singleton owners for static types.
// - Registry is the immutable result handed to the engine; it is safe for
//   concurrent reads and is never mutated after Build.
// - Value types (enums, structs) used by fields live in the Registry catalog
//   so leaves can be decoded by name.
package registry
