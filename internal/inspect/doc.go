// Package inspect renders a decoded save for people: an ordered tree with
// known leaves decoded, as indented text, JSON or YAML.
//
// Ownership boundary:
// - Inspection never mutates a graph and never needs templates; references
//   render as template ids.
// - Leaves whose type cannot be inferred render as size and a hex preview.
package inspect
