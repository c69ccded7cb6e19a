// Package store persists catalog products.
//
// Repository is the only contract the service layer depends on. Postgres is
// the production implementation, Memory backs development and tests, and
// Cached puts a Redis read-through cache in front of either.
//
// Failures are returned to the caller as they are; nothing in this package
// retries. Concurrent updates to the same product are last write wins.
package store

import (
	"context"
	"errors"

	"github.com/albaseet/catalog/internal/catalog"
)

// ErrNotFound is returned when no product has the requested id.
var ErrNotFound = errors.New("product not found")

// Repository stores products.
type Repository interface {
	// List returns every product, newest first.
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, d catalog.Draft) (catalog.Product, error)
	// BulkCreate stores all drafts or none. The result keeps input order.
	BulkCreate(ctx context.Context, drafts []catalog.Draft) ([]catalog.Product, error)
	Update(ctx context.Context, id string, p catalog.Patch) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

// clone copies the slices of p so callers cannot alias stored state.
func clone(p catalog.Product) catalog.Product {
	p.Images = append(make([]string, 0, len(p.Images)), p.Images...)
	p.Sizes = append(make([]catalog.SizeStock, 0, len(p.Sizes)), p.Sizes...)
	return p
}

var (
	_ Repository = (*Memory)(nil)
	_ Repository = (*Postgres)(nil)
	_ Repository = (*Cached)(nil)
)
