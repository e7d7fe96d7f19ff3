// Package server is the savectl HTTP surface: health, metrics, slot listing
// and the save inspector.
//
// Ownership boundary:
// - Handlers never mutate a scene graph; slots are read or deleted only.
// - Errors leave as {"error": "..."} with a status mapped from storage
//   sentinels.
package server
