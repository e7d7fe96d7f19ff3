package engine

import (
	"errors"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/wire/buffer"
	"github.com/danmuck/scenesave/internal/wire/value"
)

var (
	ErrUnknownCachedType  = errors.New("engine: type not in registry")
	ErrTemplateNotFound   = errors.New("engine: template not found")
	ErrDuplicateName      = errors.New("engine: duplicate root name")
	ErrDuplicateIdentity  = errors.New("engine: duplicate identity")
	ErrEntityNotFound     = errors.New("engine: entity not found")
	ErrComponentNotFound  = errors.New("engine: component not found")
	ErrIncompatibleFormat = errors.New("engine: incompatible save format")
	ErrMissingRegistry    = errors.New("engine: registry missing")
	ErrMalformedDocument  = errors.New("engine: malformed document")
	ErrHookPanic          = errors.New("engine: recovered panic")
)

var failureKinds = []struct {
	err  error
	kind string
}{
	{ErrUnknownCachedType, "unknown_cached_type"},
	{ErrTemplateNotFound, "template_not_found"},
	{ErrDuplicateName, "duplicate_name"},
	{ErrDuplicateIdentity, "duplicate_identity"},
	{ErrEntityNotFound, "entity_not_found"},
	{ErrComponentNotFound, "component_not_found"},
	{ErrMalformedDocument, "malformed_record"},
	{value.ErrUnsupportedValueCategory, "unsupported_value"},
	{value.ErrEntityNotTrackable, "entity_not_trackable"},
	{value.ErrTemplateNotRegistered, "template_not_registered"},
	{value.ErrUnknownType, "unknown_type"},
	{value.ErrInvalidString, "invalid_string"},
	{value.ErrKindMismatch, "kind_mismatch"},
	{document.ErrEmptyLeaf, "empty_leaf"},
	{registry.ErrOwnerMismatch, "owner_mismatch"},
	{buffer.ErrBufferUnderrun, "buffer_underrun"},
}

// Kind returns a stable metric label for err.
func Kind(err error) string {
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return "other"
}
