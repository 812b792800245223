package minio

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/internal/metrics"
	"github.com/DRSN-tech/medical-ann/internal/usecase"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/jitter"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
)

// MirrorInfrastructure в фоне копирует артефакты слота в MinIO.
type MirrorInfrastructure struct {
	repo        usecase.ArtifactRepository
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	maxRetries  int
	baseBackoff time.Duration
}

func NewMirrorInfrastructure(repo usecase.ArtifactRepository, maxRetries int, logger logger.Logger, shutdownCtx context.Context) *MirrorInfrastructure {
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &MirrorInfrastructure{
		repo:        repo,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		maxRetries:  maxRetries,
		baseBackoff: time.Second,
	}
}

// Mirror запускает фоновую загрузку артефакта. Ошибки только логируются.
func (m *MirrorInfrastructure) Mirror(artifact *domain.Artifact) {
	if artifact == nil {
		return
	}

	m.wg.Add(1)
	go m.mirror(*artifact)
}

// mirror загружает файл слота с экспоненциальной задержкой и jitter между попытками.
// Файл открывается заново на каждой попытке; если слот уже перезаписан, в бакет попадёт более новая версия.
func (m *MirrorInfrastructure) mirror(artifact domain.Artifact) {
	defer m.wg.Done()
	const (
		op         = "MirrorInfrastructure.mirror"
		maxBackoff = 30 * time.Second
	)

	ctx, cancel := context.WithTimeout(m.shutdownCtx, 2*time.Minute)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if lastErr = m.upload(ctx, artifact); lastErr == nil {
			metrics.MirrorTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			m.logger.Debugf("%s: mirrored %s", op, artifact.Name)
			return
		}

		if attempt == m.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(m.baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)
		m.logger.Warnf("%s: upload of %s failed, retrying in %v (attempt %d): %v", op, artifact.Name, sleepTime, attempt+1, lastErr)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			metrics.MirrorTotal.WithLabelValues(metrics.ResultError).Inc()
			m.logger.Warnf("%s: interrupted by shutdown, key=%s", op, artifact.Name)
			return
		}
	}

	metrics.MirrorTotal.WithLabelValues(metrics.ResultError).Inc()
	m.logger.Errorf(e.Wrap(op, lastErr), "all %d mirror attempts failed for %s", m.maxRetries, artifact.Name)
}

func (m *MirrorInfrastructure) upload(ctx context.Context, artifact domain.Artifact) error {
	f, err := os.Open(artifact.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", e.ErrIO, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", e.ErrIO, err)
	}

	_, err = m.repo.Upload(ctx, artifact.Name, f, st.Size(), artifact.ContentType)
	return err
}

// WaitForMirror ожидает завершения всех фоновых загрузок с учётом таймаута завершения приложения.
func (m *MirrorInfrastructure) WaitForMirror(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio mirror timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
