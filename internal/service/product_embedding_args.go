package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ProductEmbeddingArgs are the River job arguments for generating one
// product's embedding.
type ProductEmbeddingArgs struct {
	ProductID uuid.UUID `json:"product_id"`
}

// Kind returns the River job kind.
func (ProductEmbeddingArgs) Kind() string { return "product_embedding" }

// ProductEmbeddingInserter enqueues product embedding jobs. Implemented by a
// river.Client adapter.
type ProductEmbeddingInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}
