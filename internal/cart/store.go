package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
)

// Store persists one cart and one wishlist per owner as JSON documents.
type Store struct {
	docs fallback.Documents
	mu   sync.Mutex
}

func NewStore(docs fallback.Documents) *Store {
	return &Store{docs: docs}
}

func cartKey(owner string) string     { return "cart:" + owner }
func wishlistKey(owner string) string { return "wishlist:" + owner }

func (s *Store) Cart(ctx context.Context, owner string) (*Cart, error) {
	c := &Cart{}
	if err := s.read(ctx, cartKey(owner), c); err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

// UpdateCart loads the owner's cart, applies fn and saves the result. Calls
// for the same store are serialised.
func (s *Store) UpdateCart(ctx context.Context, owner string, fn func(*Cart) error) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Cart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.write(ctx, cartKey(owner), c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) Wishlist(ctx context.Context, owner string) (*Wishlist, error) {
	w := &Wishlist{}
	if err := s.read(ctx, wishlistKey(owner), w); err != nil {
		return nil, err
	}
	if w.Items == nil {
		w.Items = []Snapshot{}
	}
	return w, nil
}

func (s *Store) UpdateWishlist(ctx context.Context, owner string, fn func(*Wishlist) error) (*Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.Wishlist(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.write(ctx, wishlistKey(owner), w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) read(ctx context.Context, key string, v any) error {
	doc, ok, err := s.docs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.docs.Put(ctx, key, doc); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
