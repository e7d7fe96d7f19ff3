package value

import "errors"

var (
	ErrUnknownType              = errors.New("value: unknown type")
	ErrUnsupportedValueCategory = errors.New("value: unsupported value category")
	ErrEntityNotTrackable       = errors.New("value: referenced entity has no trackable owner")
	ErrTemplateNotRegistered    = errors.New("value: template not registered")
	ErrMissingRegistry          = errors.New("value: template registry missing")
	ErrKindMismatch             = errors.New("value: kind mismatch")
	ErrDuplicateType            = errors.New("value: type already registered")
	ErrInvalidType              = errors.New("value: invalid type")
	ErrInvalidString            = errors.New("value: string is not valid utf-8")
)

// IsPerField reports whether err only invalidates the value being encoded,
// as opposed to the whole operation.
func IsPerField(err error) bool {
	return errors.Is(err, ErrUnsupportedValueCategory) ||
		errors.Is(err, ErrEntityNotTrackable) ||
		errors.Is(err, ErrTemplateNotRegistered) ||
		errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, ErrInvalidString)
}
