package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Product is one catalog item. Embedding may be nil for products that have not
// been backfilled yet.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	SKU         string    `json:"sku"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EmbeddingText returns the text that represents this product for embedding:
// name, description, and category combined so semantically related queries
// land near the product vector.
func (p *Product) EmbeddingText() string {
	text := fmt.Sprintf("%s: %s", p.Name, p.Description)
	if p.Category != "" {
		text += fmt.Sprintf(" (Category: %s)", p.Category)
	}

	return text
}

// ProductMatch is one ranked result of a product similarity search.
type ProductMatch struct {
	Product
	Similarity float64 `json:"similarity_score"`
}
