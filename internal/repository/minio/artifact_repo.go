package minio

import (
	"context"
	"io"

	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ArtifactRepo хранит копии артефактов слота в бакете MinIO.
type ArtifactRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewArtifactRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ArtifactRepo {
	return &ArtifactRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает поток в бакет под ключом key и возвращает ключ объекта.
func (a *ArtifactRepo) Upload(ctx context.Context, key string, src io.Reader, size int64, contentType string) (string, error) {
	info, err := a.mc.PutObject(ctx, a.cfg.BucketName, key, src, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}
