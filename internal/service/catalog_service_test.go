package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductLister struct {
	ids       []uuid.UUID
	err       error
	lastLimit int
}

func (f *fakeProductLister) ListWithoutEmbeddings(_ context.Context, limit int) ([]uuid.UUID, error) {
	f.lastLimit = limit

	if f.err != nil {
		return nil, f.err
	}

	if limit > 0 && len(f.ids) > limit {
		return f.ids[:limit], nil
	}

	return f.ids, nil
}

type fakeInserter struct {
	inserted []ProductEmbeddingArgs
	opts     []*river.InsertOpts
	err      error
}

func (f *fakeInserter) Insert(
	_ context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.inserted = append(f.inserted, args.(ProductEmbeddingArgs))
	f.opts = append(f.opts, opts)

	return &rivertype.JobInsertResult{}, nil
}

func TestBackfillEmbeddings_EnqueuesOneJobPerProduct(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	inserter := &fakeInserter{}
	svc := NewProductCatalogService(ProductCatalogServiceParams{
		Products:    &fakeProductLister{ids: ids},
		Inserter:    inserter,
		MaxAttempts: 3,
	})

	enqueued, err := svc.BackfillEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, enqueued)

	require.Len(t, inserter.inserted, 3)
	for i, id := range ids {
		assert.Equal(t, id, inserter.inserted[i].ProductID)
	}

	opts := inserter.opts[0]
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.True(t, opts.UniqueOpts.ByArgs, "duplicate enqueues must dedupe by product")
}

func TestBackfillEmbeddings_BoundedBatch(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	lister := &fakeProductLister{ids: ids}
	inserter := &fakeInserter{}
	svc := NewProductCatalogService(ProductCatalogServiceParams{
		Products:   lister,
		Inserter:   inserter,
		BatchLimit: 2,
	})

	enqueued, err := svc.BackfillEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, enqueued)
	assert.Equal(t, 2, lister.lastLimit)
}

func TestBackfillEmbeddings_DefaultBatchLimit(t *testing.T) {
	lister := &fakeProductLister{}
	svc := NewProductCatalogService(ProductCatalogServiceParams{
		Products: lister,
		Inserter: &fakeInserter{},
	})

	_, err := svc.BackfillEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultBackfillBatchLimit, lister.lastLimit)
}

func TestBackfillEmbeddings_NothingToDo(t *testing.T) {
	inserter := &fakeInserter{}
	svc := NewProductCatalogService(ProductCatalogServiceParams{
		Products: &fakeProductLister{},
		Inserter: inserter,
	})

	enqueued, err := svc.BackfillEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, enqueued)
	assert.Empty(t, inserter.inserted)
}

func TestBackfillEmbeddings_ListFailure(t *testing.T) {
	svc := NewProductCatalogService(ProductCatalogServiceParams{
		Products: &fakeProductLister{err: errors.New("db down")},
		Inserter: &fakeInserter{},
	})

	_, err := svc.BackfillEmbeddings(context.Background())
	require.Error(t, err)
}

func TestBackfillEmbeddings_InsertFailureStops(t *testing.T) {
	svc := NewProductCatalogService(ProductCatalogServiceParams{
		Products: &fakeProductLister{ids: []uuid.UUID{uuid.New()}},
		Inserter: &fakeInserter{err: errors.New("queue unavailable")},
	})

	enqueued, err := svc.BackfillEmbeddings(context.Background())
	require.Error(t, err)
	assert.Zero(t, enqueued)
}
