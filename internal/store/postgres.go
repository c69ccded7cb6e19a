package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albaseet/catalog/internal/catalog"
)

// DefaultTable is the products table name.
const DefaultTable = "albaseet_products"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// selectColumns are scanned by scanProduct in this order.
var selectColumns = []string{
	"id::text", "article_number", "name", "description", "category", "subcategory",
	"price", "images", "sizes", "is_new", "featured", "created_at",
}

// copyColumns are written by BulkCreate in this order.
var copyColumns = []string{
	"id", "article_number", "name", "description", "category", "subcategory",
	"price", "images", "sizes", "is_new", "featured", "created_at",
}

// Postgres is a Repository backed by a pgx connection pool.
type Postgres struct {
	pool  *pgxpool.Pool
	table string

	// Now stamps CreatedAt on new products.
	Now func() time.Time
}

// NewPostgres returns a repository over the products table.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, table: DefaultTable, Now: time.Now}
}

// EnsureSchema creates the products table and its ordering index when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id             uuid PRIMARY KEY,
	seq            bigserial,
	article_number text NOT NULL DEFAULT '',
	name           jsonb NOT NULL,
	description    jsonb NOT NULL,
	category       text NOT NULL DEFAULT '',
	subcategory    text NOT NULL DEFAULT '',
	price          numeric(12,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
	images         text[] NOT NULL DEFAULT '{}',
	sizes          jsonb NOT NULL DEFAULT '[]',
	is_new         boolean NOT NULL DEFAULT false,
	featured       boolean NOT NULL DEFAULT false,
	created_at     timestamptz NOT NULL DEFAULT now()
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_idx ON %s (created_at DESC, seq)`, s.table, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_article_idx ON %s (article_number)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// List orders by creation time, newest first. Rows of one bulk insert share
// a timestamp and keep insertion order through seq.
func (s *Postgres) List(ctx context.Context) ([]catalog.Product, error) {
	query, args, err := psql.Select(selectColumns...).
		From(s.table).
		OrderBy("created_at DESC", "seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Postgres) Get(ctx context.Context, id string) (catalog.Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return catalog.Product{}, ErrNotFound
	}

	query, args, err := psql.Select(selectColumns...).
		From(s.table).
		Where("id = ?", uid).
		ToSql()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("build get query: %w", err)
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *Postgres) Create(ctx context.Context, d catalog.Draft) (catalog.Product, error) {
	values := draftColumns(d)
	values["id"] = uuid.New()
	values["created_at"] = s.Now().UTC()

	query, args, err := psql.Insert(s.table).
		SetMap(values).
		Suffix("RETURNING " + strings.Join(selectColumns, ", ")).
		ToSql()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("build insert: %w", err)
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// BulkCreate streams the batch with COPY inside one transaction.
func (s *Postgres) BulkCreate(ctx context.Context, drafts []catalog.Draft) ([]catalog.Product, error) {
	if len(drafts) == 0 {
		return []catalog.Product{}, nil
	}

	created, rows := copyRows(drafts, s.Now().UTC())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return nil, fmt.Errorf("copy products: %w", err)
	}
	if int(n) != len(rows) {
		return nil, fmt.Errorf("copy products: wrote %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return created, nil
}

func (s *Postgres) Update(ctx context.Context, id string, patch catalog.Patch) (catalog.Product, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return catalog.Product{}, ErrNotFound
	}

	query, args, err := updateQuery(s.table, uid, patch)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("build update: %w", err)
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	query, args, err := psql.Delete(s.table).Where("id = ?", uid).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// copyRows assigns ids to drafts and lays them out in copyColumns order.
// Prices are rounded the way the price column stores them, so the returned
// products match what a later List reads back.
func copyRows(drafts []catalog.Draft, now time.Time) ([]catalog.Product, [][]any) {
	created := make([]catalog.Product, len(drafts))
	rows := make([][]any, len(drafts))
	for i, d := range drafts {
		id := uuid.New()
		d.Price = catalog.RoundPrice(d.Price)
		created[i] = clone(catalog.Product{ID: id.String(), Draft: d, CreatedAt: now})
		p := created[i]
		rows[i] = []any{
			id, p.ArticleNumber, p.Name, p.Description, p.Category, p.Subcategory,
			p.Price, p.Images, p.Sizes, p.IsNew, p.Featured, p.CreatedAt,
		}
	}
	return created, rows
}

// updateQuery builds an UPDATE touching only the columns set in patch.
func updateQuery(table string, id uuid.UUID, patch catalog.Patch) (string, []any, error) {
	return psql.Update(table).
		SetMap(patchColumns(patch)).
		Where("id = ?", id).
		Suffix("RETURNING " + strings.Join(selectColumns, ", ")).
		ToSql()
}

func draftColumns(d catalog.Draft) map[string]any {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	sizes := d.Sizes
	if sizes == nil {
		sizes = []catalog.SizeStock{}
	}
	return map[string]any{
		"article_number": d.ArticleNumber,
		"name":           d.Name,
		"description":    d.Description,
		"category":       d.Category,
		"subcategory":    d.Subcategory,
		"price":          d.Price,
		"images":         images,
		"sizes":          sizes,
		"is_new":         d.IsNew,
		"featured":       d.Featured,
	}
}

func patchColumns(p catalog.Patch) map[string]any {
	cols := make(map[string]any)
	if p.ArticleNumber != nil {
		cols["article_number"] = *p.ArticleNumber
	}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Subcategory != nil {
		cols["subcategory"] = *p.Subcategory
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Images != nil {
		cols["images"] = p.Images
	}
	if p.Sizes != nil {
		cols["sizes"] = p.Sizes
	}
	if p.IsNew != nil {
		cols["is_new"] = *p.IsNew
	}
	if p.Featured != nil {
		cols["featured"] = *p.Featured
	}
	return cols
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.ArticleNumber, &p.Name, &p.Description, &p.Category, &p.Subcategory,
		&p.Price, &p.Images, &p.Sizes, &p.IsNew, &p.Featured, &p.CreatedAt,
	)
	if err != nil {
		return catalog.Product{}, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}
