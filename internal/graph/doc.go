// Package graph defines the live entity graph the engine reconciles against.
//
// Ownership boundary:
// - Entity, Component, Host, SceneHost and Templates are the capability set
//   a host runtime implements.
// - Scene and Node are an in-memory host used by the CLI, the server and
//   tests. TemplateSet is the matching template registry.
// - Identity assignment policy belongs to the host; this package only
//   carries identities.
package graph
