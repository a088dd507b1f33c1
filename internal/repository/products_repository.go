package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/roastery/assistant/internal/models"
)

// ProductsRepository handles data access for the products table.
type ProductsRepository struct {
	db *pgxpool.Pool
}

// NewProductsRepository creates a new products repository.
func NewProductsRepository(db *pgxpool.Pool) *ProductsRepository {
	return &ProductsRepository{db: db}
}

const productColumns = `id, name, description, price, category, sku, in_stock, created_at, updated_at`

func scanProduct(row pgx.Row, p *models.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.SKU,
		&p.InStock, &p.CreatedAt, &p.UpdatedAt,
	)
}

// ErrProductNotFound is returned when no product exists for the given ID.
var ErrProductNotFound = errors.New("product not found")

// GetByID returns one product. Returns ErrProductNotFound when no row exists.
func (r *ProductsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product

	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// SearchByEmbedding returns in-stock products nearest to queryEmbedding with
// similarity at or above minSimilarity, ordered by similarity descending.
// Products without an embedding are never candidates. Uses cosine distance
// (<=>); similarity = 1 - distance.
func (r *ProductsRepository) SearchByEmbedding(
	ctx context.Context, queryEmbedding []float32, minSimilarity float64, limit int,
) ([]models.ProductMatch, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`, (1 - (embedding <=> $1)) AS similarity
		FROM products
		WHERE in_stock AND embedding IS NOT NULL AND (1 - (embedding <=> $1)) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`, queryVec, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("search products by embedding: %w", err)
	}
	defer rows.Close()

	return collectProductMatches(rows)
}

// GetByIDsPreservingOrder returns the products for ids in the given order,
// recomputing similarity against queryEmbedding for each row. Products that
// went out of stock or were deleted since the id list was built are dropped.
// Used to materialize cached search results.
func (r *ProductsRepository) GetByIDsPreservingOrder(
	ctx context.Context, ids []uuid.UUID, queryEmbedding []float32,
) ([]models.ProductMatch, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	queryVec := pgvector.NewVector(queryEmbedding)

	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`, (1 - (embedding <=> $1)) AS similarity
		FROM products
		JOIN unnest($2::uuid[]) WITH ORDINALITY AS wanted(id, ord) USING (id)
		WHERE in_stock AND embedding IS NOT NULL
		ORDER BY wanted.ord`, queryVec, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	return collectProductMatches(rows)
}

func collectProductMatches(rows pgx.Rows) ([]models.ProductMatch, error) {
	var matches []models.ProductMatch

	for rows.Next() {
		var m models.ProductMatch
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Description, &m.Price, &m.Category, &m.SKU,
			&m.InStock, &m.CreatedAt, &m.UpdatedAt, &m.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan product match: %w", err)
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product matches: %w", err)
	}

	return matches, nil
}

// UpdateEmbedding stores the embedding vector for one product.
func (r *ProductsRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)

	tag, err := r.db.Exec(ctx,
		`UPDATE products SET embedding = $2, updated_at = $3 WHERE id = $1`,
		id, vec, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update product embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ListWithoutEmbeddings returns IDs of up to limit products that have no
// embedding yet, oldest first, so the backfill job can enqueue work for them
// in bounded batches. A limit <= 0 returns all of them.
func (r *ProductsRepository) ListWithoutEmbeddings(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `SELECT id FROM products WHERE embedding IS NULL ORDER BY created_at ASC`

	var args []any

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products without embeddings: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product ids: %w", err)
	}

	return ids, nil
}
