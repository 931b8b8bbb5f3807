package outline

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID is the stable opaque identifier of a node. It is a random UUID and
// never changes once the node exists.
type NodeID uuid.UUID

// NewNodeID returns a fresh random identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// ParseNodeID parses the textual UUID form of an identifier.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	return NodeID(u), nil
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first 8 characters of the textual form.
func (id NodeID) Short() string {
	return id.String()[:8]
}

// IsZero reports whether id is the all-zero UUID.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *NodeID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", b, err)
	}
	*id = NodeID(u)
	return nil
}

// BookID identifies a Book aggregate.
type BookID uuid.UUID

func NewBookID() BookID {
	return BookID(uuid.New())
}

func (id BookID) String() string {
	return uuid.UUID(id).String()
}

func (id BookID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *BookID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("invalid book id %q: %w", b, err)
	}
	*id = BookID(u)
	return nil
}
