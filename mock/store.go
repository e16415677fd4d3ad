package mock

import (
	"context"

	"github.com/mstolarz/council"
)

// Store is a test double for council.Store.
// Set the function fields for the methods you need.
type Store struct {
	ListFn   func(ctx context.Context) ([]council.ConversationSummary, error)
	CreateFn func(ctx context.Context) (*council.Conversation, error)
	GetFn    func(ctx context.Context, id string) (*council.Conversation, error)
	DeleteFn func(ctx context.Context, id string) error
}

// List delegates to ListFn.
func (s *Store) List(ctx context.Context) ([]council.ConversationSummary, error) {
	return s.ListFn(ctx)
}

// Create delegates to CreateFn.
func (s *Store) Create(ctx context.Context) (*council.Conversation, error) {
	return s.CreateFn(ctx)
}

// Get delegates to GetFn.
func (s *Store) Get(ctx context.Context, id string) (*council.Conversation, error) {
	return s.GetFn(ctx, id)
}

// Delete delegates to DeleteFn.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteFn(ctx, id)
}
