package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/importer"
	"github.com/albaseet/catalog/internal/observability"
	"github.com/albaseet/catalog/internal/store"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultSessionTTL    = 30 * time.Minute
	DefaultImportTimeout = 2 * time.Minute
	DefaultMaxFileSize   = 10 << 20
)

// Options configures a Service. Repo is required.
type Options struct {
	Repo       store.Repository
	Normalizer *importer.Normalizer
	Limiter    *ImportLimiter
	Metrics    *observability.Metrics

	SessionTTL    time.Duration
	ImportTimeout time.Duration
	MaxFileSize   int64

	Now func() time.Time
}

// Service owns the catalog snapshot and the import sessions.
//
// The snapshot is the newest-first product list. It is loaded lazily on the
// first read and patched after every successful write, so reads never hit
// the repository once it is warm. Writers are serialized by writeMu and
// hold mu only to swap the snapshot.
type Service struct {
	repo       store.Repository
	normalizer *importer.Normalizer
	limiter    *ImportLimiter
	validator  *Validator
	metrics    *observability.Metrics

	sessionTTL    time.Duration
	importTimeout time.Duration
	maxFileSize   int64
	now           func() time.Time

	writeMu sync.Mutex

	mu       sync.RWMutex
	loaded   bool
	products []catalog.Product

	sessionsMu sync.Mutex
	sessions   map[string]*importSession
}

// NewService creates a Service from opts.
func NewService(opts Options) (*Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("core: repository is required")
	}
	s := &Service{
		repo:          opts.Repo,
		normalizer:    opts.Normalizer,
		limiter:       opts.Limiter,
		validator:     NewValidator(),
		metrics:       opts.Metrics,
		sessionTTL:    opts.SessionTTL,
		importTimeout: opts.ImportTimeout,
		maxFileSize:   opts.MaxFileSize,
		now:           opts.Now,
		sessions:      make(map[string]*importSession),
	}
	if s.normalizer == nil {
		s.normalizer = importer.NewNormalizer()
	}
	if s.limiter == nil {
		s.limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime)
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	if s.importTimeout <= 0 {
		s.importTimeout = DefaultImportTimeout
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = DefaultMaxFileSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Limiter exposes the import limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// MaxFileSize returns the largest accepted import upload in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Refresh reloads the snapshot from the repository.
func (s *Service) Refresh(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reload(ctx)
}

// reload requires writeMu.
func (s *Service) reload(ctx context.Context) error {
	start := time.Now()
	products, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	s.mu.Lock()
	s.products = products
	s.loaded = true
	s.mu.Unlock()

	s.metrics.SetProducts(len(products))
	slog.Debug("catalog loaded", "products", len(products), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	loaded = s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.reload(ctx)
}

// Products returns a copy of the snapshot, newest first.
func (s *Service) Products(ctx context.Context) ([]catalog.Product, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products), nil
}

// Query filters and sorts the snapshot.
func (s *Service) Query(ctx context.Context, c catalog.Criteria) ([]catalog.Product, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.Query(s.products, c), nil
}

// GetProduct returns one product from the snapshot.
func (s *Service) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return catalog.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.products[i], nil
	}
	return catalog.Product{}, fmt.Errorf("get product %s: %w", id, store.ErrNotFound)
}

// LowStock returns products with a size down to catalog.LowStockThreshold
// units or fewer but not yet sold out.
func (s *Service) LowStock(ctx context.Context) ([]catalog.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.LowStock(products), nil
}

// OutOfStock returns products with no units left.
func (s *Service) OutOfStock(ctx context.Context) ([]catalog.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.OutOfStock(products), nil
}

// Stats is the admin dashboard payload.
type Stats struct {
	Catalog  catalog.Summary     `json:"catalog"`
	Imports  ImportLimiterStatus `json:"imports"`
	Sessions int                 `json:"pendingImports"`
}

// Stats summarizes the catalog and import activity.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Catalog:  catalog.Summarize(products),
		Imports:  s.limiter.Status(),
		Sessions: s.pendingImports(),
	}, nil
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, d catalog.Draft) (catalog.Product, error) {
	if err := s.validator.Draft(d); err != nil {
		return catalog.Product{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p, err := s.repo.Create(ctx, d)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.prepend(p)
	return p, nil
}

// BulkCreate stores drafts in one batch. Every draft is validated first and
// nothing is written if any fails.
func (s *Service) BulkCreate(ctx context.Context, drafts []catalog.Draft) ([]catalog.Product, error) {
	for i, d := range drafts {
		if err := s.validator.Draft(d); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	created, err := s.repo.BulkCreate(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("bulk create %d products: %w", len(drafts), err)
	}
	s.prepend(created...)
	return created, nil
}

// UpdateProduct applies a partial update. An empty patch returns the product unchanged.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch catalog.Patch) (catalog.Product, error) {
	if patch.IsEmpty() {
		return s.GetProduct(ctx, id)
	}
	if err := s.validator.Patch(patch); err != nil {
		return catalog.Product{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.update(ctx, id, patch)
}

// update requires writeMu.
func (s *Service) update(ctx context.Context, id string, patch catalog.Patch) (catalog.Product, error) {
	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	s.replace(p)
	return p, nil
}

// UpdateStock sets the stock of the size at sizeIndex. Negative stock is
// stored as 0.
func (s *Service) UpdateStock(ctx context.Context, id string, sizeIndex, stock int) (catalog.Product, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update stock %s: %w", id, err)
	}
	sizes, err := catalog.WithSizeStock(current.Sizes, sizeIndex, stock)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update stock %s: %w", id, err)
	}
	return s.update(ctx, id, catalog.Patch{Sizes: sizes})
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.products = slices.Delete(slices.Clone(s.products), i, i+1)
	}
	n := len(s.products)
	s.mu.Unlock()

	s.metrics.SetProducts(n)
	return nil
}

// prepend requires writeMu. A cold snapshot is left for the next load.
func (s *Service) prepend(created ...catalog.Product) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return
	}
	next := make([]catalog.Product, 0, len(created)+len(s.products))
	next = append(next, created...)
	next = append(next, s.products...)
	s.products = next
	n := len(next)
	s.mu.Unlock()

	s.metrics.SetProducts(n)
}

// replace requires writeMu.
func (s *Service) replace(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(p.ID); i >= 0 {
		next := slices.Clone(s.products)
		next[i] = p
		s.products = next
	}
}

// indexOf requires mu.
func (s *Service) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p catalog.Product) bool { return p.ID == id })
}
