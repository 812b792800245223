package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingRepo struct {
	dim       uint64
	points    []domain.Embedding
	upserts   int
	neighbors []domain.Neighbor
	limit     uint64
}

func (f *fakeEmbeddingRepo) EnsureCollection(_ context.Context, dim uint64) error {
	f.dim = dim
	return nil
}

func (f *fakeEmbeddingRepo) Upsert(_ context.Context, vectors []domain.Embedding) error {
	f.upserts++
	f.points = append(f.points, vectors...)
	return nil
}

func (f *fakeEmbeddingRepo) Search(_ context.Context, _ []float32, limit uint64) ([]domain.Neighbor, error) {
	f.limit = limit
	return f.neighbors, nil
}

func matrix(rows, cols int) *domain.EmbeddingMatrix {
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = float32(i)
	}
	return domain.NewEmbeddingMatrix(rows, cols, data)
}

func TestIndexClasses(t *testing.T) {
	t.Run("upserts every row with its label", func(t *testing.T) {
		repo := &fakeEmbeddingRepo{}
		uc := NewIndexUC(repo, logger.NewNopLogger())

		n, err := uc.IndexClasses(context.Background(), map[string]*domain.EmbeddingMatrix{
			"COVID":  matrix(300, 4),
			"Normal": matrix(2, 4),
		})
		require.NoError(t, err)

		assert.Equal(t, 302, n)
		assert.Equal(t, uint64(4), repo.dim)
		assert.Equal(t, 2, repo.upserts)
		require.Len(t, repo.points, 302)
		assert.Equal(t, "COVID", repo.points[0].Payload["label"])
		assert.Equal(t, "Normal", repo.points[301].Payload["label"])
		assert.Equal(t, int64(1), repo.points[301].Payload["row"])
	})

	t.Run("reindexing keeps point ids stable", func(t *testing.T) {
		repo := &fakeEmbeddingRepo{}
		uc := NewIndexUC(repo, logger.NewNopLogger())
		classes := map[string]*domain.EmbeddingMatrix{"Normal": matrix(2, 3)}

		_, err := uc.IndexClasses(context.Background(), classes)
		require.NoError(t, err)
		_, err = uc.IndexClasses(context.Background(), classes)
		require.NoError(t, err)

		require.Len(t, repo.points, 4)
		ids := make(map[string]struct{})
		for _, p := range repo.points {
			ids[p.ID] = struct{}{}
		}
		assert.Len(t, ids, 2)
		assert.Equal(t, repo.points[0].ID, repo.points[2].ID)
		assert.Equal(t, PointID("Normal", 1), repo.points[3].ID)
	})

	t.Run("point ids differ per label and row", func(t *testing.T) {
		assert.NotEqual(t, PointID("Normal", 0), PointID("Normal", 1))
		assert.NotEqual(t, PointID("Normal", 0), PointID("COVID", 0))
		assert.Equal(t, PointID("COVID", 7), PointID("COVID", 7))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		uc := NewIndexUC(&fakeEmbeddingRepo{}, logger.NewNopLogger())

		_, err := uc.IndexClasses(context.Background(), map[string]*domain.EmbeddingMatrix{
			"A": matrix(1, 2),
			"B": matrix(1, 3),
		})
		assert.ErrorIs(t, err, e.ErrShape)
	})

	t.Run("nothing to index", func(t *testing.T) {
		uc := NewIndexUC(&fakeEmbeddingRepo{}, logger.NewNopLogger())

		_, err := uc.IndexClasses(context.Background(), map[string]*domain.EmbeddingMatrix{
			"A": domain.NewEmbeddingMatrix(0, 0, nil),
		})
		assert.ErrorIs(t, err, e.ErrEmptyVectors)
	})
}

func TestClassify(t *testing.T) {
	repo := &fakeEmbeddingRepo{neighbors: []domain.Neighbor{
		{Label: "Normal"}, {Label: "COVID"}, {Label: "COVID"}, {Label: "Viral"},
	}}
	uc := NewIndexUC(repo, logger.NewNopLogger())

	res, err := uc.Classify(context.Background(), []float32{1, 2}, 4)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), repo.limit)
	assert.Equal(t, "COVID", res.Label)
	assert.Equal(t, []domain.LabelCount{
		{Label: "COVID", Count: 2},
		{Label: "Normal", Count: 1},
		{Label: "Viral", Count: 1},
	}, res.Counts)

	_, err = uc.Classify(context.Background(), []float32{1}, 0)
	assert.ErrorIs(t, err, e.ErrInvalidNeighbor)

	_, err = uc.Classify(context.Background(), []float32{1}, MaxNeighbors+1)
	assert.ErrorIs(t, err, e.ErrInvalidNeighbor)

	_, err = uc.Classify(context.Background(), nil, 5)
	assert.ErrorIs(t, err, e.ErrEmptyVectors)
}

func TestVote(t *testing.T) {
	t.Run("tie goes to the nearest label", func(t *testing.T) {
		res, err := Vote([]domain.Neighbor{{Label: "Lung"}, {Label: "Normal"}, {Label: "Normal"}, {Label: "Lung"}})
		require.NoError(t, err)
		assert.Equal(t, "Lung", res.Label)
	})

	t.Run("no neighbors", func(t *testing.T) {
		_, err := Vote(nil)
		assert.ErrorIs(t, err, e.ErrNoNeighbors)
	})
}
