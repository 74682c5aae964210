package lineup

import "context"

// BoardStore keeps live boards between requests. Boards are transient
// working state; the league hub stays the durable owner, so losing a store
// only costs unsaved edits.
type BoardStore interface {
	Get(ctx context.Context, key string) (*Board, bool, error)
	Put(ctx context.Context, key string, board *Board) error
	Delete(ctx context.Context, key string) error
}
