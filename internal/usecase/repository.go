package usecase

import (
	"context"
	"io"

	"github.com/DRSN-tech/medical-ann/internal/domain"
)

// SlotRepository записывает содержимое в слот загрузки на диске.
type SlotRepository interface {
	Write(ctx context.Context, name string, src io.Reader) (*domain.Artifact, error)
}

// SlotLocker выдаёт эксклюзивную блокировку слота. Возвращённая функция снимает блокировку.
type SlotLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type ArtifactRepository interface {
	Upload(ctx context.Context, key string, src io.Reader, size int64, contentType string) (string, error)
}

type EmbeddingRepository interface {
	EnsureCollection(ctx context.Context, dim uint64) error
	Upsert(ctx context.Context, vectors []domain.Embedding) error
	Search(ctx context.Context, vector []float32, limit uint64) ([]domain.Neighbor, error)
}
