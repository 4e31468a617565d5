package testutil

// FixedLineIDs hands out the same quote line id every time.
//
// Quote output embeds a generated line id; with a fixed id the same request
// renders byte-identical output, which keeps golden files stable.
//
// Thread-safety: FixedLineIDs is stateless and safe for concurrent use.
type FixedLineIDs struct {
	id string
}

// NewFixedLineIDs creates a generator returning id.
//
// If id is empty, NewID returns "test-line-default".
func NewFixedLineIDs(id string) *FixedLineIDs {
	if id == "" {
		id = "test-line-default"
	}
	return &FixedLineIDs{id: id}
}

// NewID returns the fixed id.
func (g *FixedLineIDs) NewID() string {
	return g.id
}
