// Package cart keeps the client-local cart state: an atomically
// replaced snapshot mutated only through pure reducers, plus a
// pending-operation queue for speculative updates awaiting server
// confirmation.
package cart

import (
	"sync"

	"github.com/SimonVuong/saute/internal/models"
)

// Reducer computes a new cart from the current one. A nil current cart
// means no cart exists yet.
type Reducer func(current *models.Cart) (*models.Cart, error)

// Store holds at most one authoritative cart snapshot. Every mutation
// reads the current snapshot, computes the new value, and atomically
// replaces it; readers never observe partial writes.
type Store struct {
	mu      sync.Mutex
	cart    *models.Cart
	pending []pendingOp
	nextID  int
}

type pendingOp struct {
	id       int
	reverted *models.Cart
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil when no cart exists.
func (s *Store) Get() *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// Apply runs the reducer against the current snapshot and commits the
// result. All-or-nothing: a reducer error leaves the snapshot
// untouched.
func (s *Store) Apply(fn Reducer) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.cart)
	if err != nil {
		return nil, err
	}
	s.cart = next
	return next, nil
}

// Speculate applies the reducer immediately but records the prior
// snapshot so the operation can be rolled back if the server rejects
// it. Returns an operation id for Commit/Rollback.
func (s *Store) Speculate(fn Reducer) (int, *models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior := s.cart
	next, err := fn(s.cart)
	if err != nil {
		return 0, nil, err
	}
	s.nextID++
	s.pending = append(s.pending, pendingOp{id: s.nextID, reverted: prior})
	s.cart = next
	return s.nextID, next, nil
}

// Commit drops the rollback record for a confirmed operation.
func (s *Store) Commit(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.pending {
		if op.id == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Rollback restores the snapshot recorded before the given operation
// and discards it along with any operations speculated after it, which
// were computed on top of the rejected state.
func (s *Store) Rollback(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.pending {
		if op.id == id {
			s.cart = op.reverted
			s.pending = s.pending[:i]
			return
		}
	}
}

// PendingCount reports how many speculative operations await
// confirmation.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
