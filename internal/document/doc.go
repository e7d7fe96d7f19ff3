// Package document owns the intermediate save tree.
//
// Ownership boundary:
// - Map / List / Leaf node variants
// - tag-driven node factory
// - header + body framing of a whole tree
package document
