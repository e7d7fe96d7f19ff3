// Package components provides savable built-in components.
//
// Ownership boundary:
// - Transform and Rigidbody persist through save/load hooks rather than
//   field tables, mirroring host components whose state is not plain fields.
// - Register installs both into a registry.Builder.
package components
