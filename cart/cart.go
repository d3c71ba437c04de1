// Package cart holds the in-session record of what a customer intends to
// purchase. A Store is owned by exactly one session and persists itself
// through a Repository after every mutation.
package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is a single product line in a cart. Price is the unit price
// snapshotted when the product was first added; merging a repeated add
// keeps the original snapshot.
type LineItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	Qty   int     `json:"qty"`
}

// Store is an insertion-ordered cart with at most one line per product id.
// It is not safe for concurrent use; each session gets its own store.
type Store struct {
	items []LineItem
	repo  Repository
}

// New returns an empty cart backed by repo.
func New(repo Repository) *Store {
	if repo == nil {
		repo = NopRepository{}
	}
	return &Store{repo: repo}
}

// Open restores the cart previously saved in repo, or returns an empty
// cart when nothing was saved yet.
func Open(repo Repository) (*Store, error) {
	s := New(repo)
	items, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

// Add appends item to the cart, or merges it into the existing line with
// the same id by summing quantities. All other fields of an existing line
// are left as first stored.
func (s *Store) Add(item LineItem) error {
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Qty += item.Qty
			return s.persist()
		}
	}
	s.items = append(s.items, item)
	return s.persist()
}

// Remove deletes the line with the given id. Removing an absent id is a
// no-op.
func (s *Store) Remove(id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.persist()
		}
	}
	return nil
}

// Increment bumps the quantity of the line with the given id by one.
// No-op if absent.
func (s *Store) Increment(id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Qty++
			return s.persist()
		}
	}
	return nil
}

// Decrement lowers the quantity of the line with the given id by one,
// clamped at 1, then drops any line whose quantity ended up non-positive.
// The clamp means the drop cannot fire from Decrement alone; it is kept
// so a future relaxation of the clamp keeps removing emptied lines.
// No-op if absent.
func (s *Store) Decrement(id string) error {
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			q := s.items[i].Qty - 1
			if q < 1 {
				q = 1
			}
			s.items[i].Qty = q
			found = true
		}
	}
	if !found {
		return nil
	}
	kept := s.items[:0]
	for _, it := range s.items {
		if it.Qty > 0 {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return s.persist()
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() error {
	s.items = nil
	return s.persist()
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []LineItem {
	cp := make([]LineItem, len(s.items))
	copy(cp, s.items)
	return cp
}

// Total returns the sum of price*qty over all lines, 0 for an empty cart.
// Summation is done in decimal so repeated float prices do not drift.
func (s *Store) Total() float64 {
	sum := decimal.Zero
	for _, it := range s.items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty)))
		sum = sum.Add(line)
	}
	f, _ := sum.Float64()
	return f
}

// Count returns the total number of units across all lines, not the
// number of distinct lines.
func (s *Store) Count() int {
	n := 0
	for _, it := range s.items {
		n += it.Qty
	}
	return n
}

func (s *Store) persist() error {
	return s.repo.Save(s.items)
}
