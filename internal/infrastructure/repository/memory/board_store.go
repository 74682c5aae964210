package memory

import (
	"context"
	"sync"

	"github.com/apexfantasy/paddock/internal/domain/lineup"
)

// BoardStore holds live lineup boards keyed by session and league. Boards
// are shared pointers; the Board's own lock serializes slot edits.
type BoardStore struct {
	mu    sync.RWMutex
	items map[string]*lineup.Board
}

func NewBoardStore() *BoardStore {
	return &BoardStore{items: make(map[string]*lineup.Board)}
}

func (r *BoardStore) Get(_ context.Context, key string) (*lineup.Board, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	board, ok := r.items[key]
	return board, ok, nil
}

func (r *BoardStore) Put(_ context.Context, key string, board *lineup.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[key] = board
	return nil
}

func (r *BoardStore) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, key)
	return nil
}
