package quote

import "github.com/google/uuid"

// LineIDGenerator hands out ids for priced quote lines.
type LineIDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 line ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
