package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrSlotNotFound = errors.New("storage: slot not found")
	ErrInvalidSlot  = errors.New("storage: invalid slot name")
	ErrUnknownStore = errors.New("storage: unknown backend")
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidateSlot rejects names that are unsafe as file names.
func ValidateSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

// SlotInfo describes one stored slot.
type SlotInfo struct {
	Slot    string    `json:"slot"`
	Size    int64     `json:"size"`
	Updated time.Time `json:"updated"`
}

// Store persists blobs by slot name.
type Store interface {
	Name() string
	Write(ctx context.Context, slot string, data []byte) error
	Read(ctx context.Context, slot string) ([]byte, error)
	Delete(ctx context.Context, slot string) error
	// List returns slots sorted by name.
	List(ctx context.Context) ([]SlotInfo, error)
	Close() error
}

// Open returns the backend named by backend: "file" uses dir, "sqlite" uses dsn.
func Open(backend, dir, dsn string) (Store, error) {
	switch backend {
	case "file", "":
		return NewFileStore(dir)
	case "sqlite":
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, backend)
	}
}
