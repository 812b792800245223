package usecase

import "github.com/DRSN-tech/medical-ann/internal/domain"

// ArtifactMirror копирует сохранённый артефакт во внешнее хранилище в фоне.
type ArtifactMirror interface {
	Mirror(artifact *domain.Artifact)
}
