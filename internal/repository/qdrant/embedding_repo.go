package qdrant

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// EmbeddingRepo репозиторий для работы с embedding-векторами в Qdrant
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// EnsureCollection создаёт коллекцию с евклидовой метрикой, если её ещё нет.
func (q *EmbeddingRepo) EnsureCollection(ctx context.Context, dim uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.QdrantCollectionName)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to check collection existence: %w", err))
	}

	if exists {
		info, err := q.client.GetCollectionInfo(ctx, q.cfg.QdrantCollectionName)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize(); size != 0 && size != dim {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: collection %s has dimension %d, got %d",
				e.ErrShape, q.cfg.QdrantCollectionName, size, dim))
		}

		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.QdrantCollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create collection: %w", err))
	}

	return nil
}

// Upsert сохраняет или обновляет embedding-векторы в коллекции Qdrant.
func (q *EmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	reqVectors := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, vector := range vectors {
		reqVectors = append(reqVectors, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(vector.ID),
			Vectors: qdrant.NewVectors(vector.Vector...),
			Payload: qdrant.NewValueMap(vector.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         reqVectors,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Search возвращает limit ближайших к vector точек, от ближней к дальней.
func (q *EmbeddingRepo) Search(ctx context.Context, vector []float32, limit uint64) ([]domain.Neighbor, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return toNeighbors(points), nil
}

// toNeighbors переводит найденные точки в соседей, сохраняя порядок выдачи.
func toNeighbors(points []*qdrant.ScoredPoint) []domain.Neighbor {
	neighbors := make([]domain.Neighbor, 0, len(points))
	for _, p := range points {
		neighbors = append(neighbors, domain.Neighbor{
			ID:    p.GetId().GetUuid(),
			Label: p.GetPayload()["label"].GetStringValue(),
			Score: p.GetScore(),
		})
	}

	return neighbors
}
