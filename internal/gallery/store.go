package gallery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store is the in-memory view of the gallery, kept in sync with a Backend.
// Mutations are last-writer-wins on the whole collection. The in-memory
// view only changes after the backend write succeeds.
type Store struct {
	backend Backend

	mu       sync.Mutex
	products []Product
}

// Open creates a store over backend and loads whatever it holds.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	s := &Store{backend: backend}
	if _, err := s.LoadAll(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadAll re-reads the backend and returns the snapshot. A missing record
// yields an empty gallery. A corrupt record is logged and also yields an
// empty gallery; only a failing backend read is returned as an error.
func (s *Store) LoadAll(ctx context.Context) ([]Product, error) {
	start := time.Now()
	data, ok, err := s.backend.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery from %s: %w", s.backend.Name(), err)
	}

	var products []Product
	if ok && len(data) > 0 {
		products, err = Decode(data)
		if err != nil {
			log.Warn().
				Err(err).
				Str("backend", s.backend.Name()).
				Int("bytes", len(data)).
				Msg("Stored gallery is unreadable, starting with an empty gallery")
			products = nil
		}
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	log.Debug().
		Str("backend", s.backend.Name()).
		Int("products", len(products)).
		Dur("duration", time.Since(start)).
		Msg("Gallery loaded")
	return cloneProducts(products), nil
}

// Upsert replaces the product with the same id in place, or appends it.
// The full snapshot is persisted before Upsert returns.
func (s *Store) Upsert(ctx context.Context, p Product) error {
	if p.ID == "" {
		return errors.New("gallery: product id is required")
	}
	p.Insights = p.Insights.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.products)
	if i := indexOf(next, p.ID); i >= 0 {
		next[i] = p
	} else {
		next = append(next, p)
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.products = next
	log.Info().Str("id", p.ID).Int("products", len(next)).Msg("Product saved to gallery")
	return nil
}

// Remove deletes a product by id. Unknown ids are a no-op and do not
// touch the backend.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.products), i, i+1)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.products = next
	log.Info().Str("id", id).Int("products", len(next)).Msg("Product removed from gallery")
	return nil
}

// FindByID returns the product with the given id.
func (s *Store) FindByID(id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.products, id)
	if i < 0 {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneProduct(s.products[i]), nil
}

// List returns the products in gallery order.
func (s *Store) List() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProducts(s.products)
}

// Len returns the number of saved products.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context, products []Product) error {
	start := time.Now()
	data, err := Encode(products)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, data); err != nil {
		log.Error().Err(err).Str("backend", s.backend.Name()).Msg("Failed to persist gallery")
		return fmt.Errorf("failed to write gallery to %s: %w", s.backend.Name(), err)
	}
	log.Debug().
		Str("backend", s.backend.Name()).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Gallery persisted")
	return nil
}

func indexOf(products []Product, id string) int {
	return slices.IndexFunc(products, func(p Product) bool { return p.ID == id })
}

func cloneProduct(p Product) Product {
	p.Insights = p.Insights.Clone()
	return p
}

func cloneProducts(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = cloneProduct(p)
	}
	return out
}
