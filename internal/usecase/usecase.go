package usecase

import (
	"context"

	"github.com/DRSN-tech/medical-ann/internal/domain"
)

type UploadUC interface {
	StoreUpload(ctx context.Context, req *UploadReq) (*UploadRes, error)
}

type IndexUC interface {
	IndexClasses(ctx context.Context, classes map[string]*domain.EmbeddingMatrix) (int, error)
	Classify(ctx context.Context, vector []float32, k int) (*domain.Classification, error)
}
