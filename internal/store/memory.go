package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albaseet/catalog/internal/catalog"
)

// Memory is an in-process Repository. Products are kept newest first.
type Memory struct {
	mu       sync.RWMutex
	products []catalog.Product

	// Now stamps CreatedAt on new products.
	Now func() time.Time
}

// NewMemory returns a repository holding seed, which must be newest first.
func NewMemory(seed ...catalog.Product) *Memory {
	m := &Memory{Now: time.Now}
	for _, p := range seed {
		m.products = append(m.products, clone(p))
	}
	return m
}

func (m *Memory) List(ctx context.Context) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]catalog.Product, len(m.products))
	for i, p := range m.products {
		out[i] = clone(p)
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return catalog.Product{}, ErrNotFound
	}
	return clone(m.products[i]), nil
}

func (m *Memory) Create(ctx context.Context, d catalog.Draft) (catalog.Product, error) {
	created, err := m.BulkCreate(ctx, []catalog.Draft{d})
	if err != nil {
		return catalog.Product{}, err
	}
	return created[0], nil
}

// BulkCreate prepends the batch in input order, so the first draft of the
// batch lists before the rest.
func (m *Memory) BulkCreate(ctx context.Context, drafts []catalog.Draft) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := m.Now().UTC()
	created := make([]catalog.Product, len(drafts))
	for i, d := range drafts {
		created[i] = clone(catalog.Product{ID: uuid.NewString(), Draft: d, CreatedAt: now})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]catalog.Product, 0, len(created)+len(m.products))
	for _, p := range created {
		stored = append(stored, clone(p))
	}
	m.products = append(stored, m.products...)
	return created, nil
}

func (m *Memory) Update(ctx context.Context, id string, p catalog.Patch) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return catalog.Product{}, ErrNotFound
	}
	m.products[i] = clone(p.Apply(m.products[i]))
	return clone(m.products[i]), nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	m.products = append(m.products[:i], m.products[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (m *Memory) indexOf(id string) int {
	for i, p := range m.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
