// Package chronicle defines persistence contracts for the branching story
// archive. Each node records one narrated transition; nodes form a tree so
// alternate choices from the same moment stay retrievable.
package chronicle

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested chronicle node is missing.
	ErrNotFound = errors.New("node not found")
)

// Node stores one narrated transition in the story tree. ParentID zero marks
// a root node.
type Node struct {
	ID         int64
	ParentID   int64
	ActionKind string
	ActionName string
	Narrative  string
	Success    bool
	StateJSON  []byte
	CreatedAt  time.Time
}

// Store persists chronicle nodes.
type Store interface {
	AppendNode(ctx context.Context, node Node) (int64, error)
	GetNode(ctx context.Context, id int64) (Node, error)
	ListChildren(ctx context.Context, parentID int64) ([]Node, error)
	Path(ctx context.Context, id int64) ([]Node, error)
	Close() error
}
