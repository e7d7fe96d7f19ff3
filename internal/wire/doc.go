// Package wire owns the save blob byte format.
//
// Ownership boundary:
// - growable buffer and fixed-width primitive encodings (buffer)
// - string interning table and its header block (strtab)
// - tagged value model and its encoder/decoder (value)
package wire
