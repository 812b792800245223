package minio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArtifactRepo struct {
	mu       sync.Mutex
	failures int
	calls    int
	objects  map[string][]byte
}

func (f *fakeArtifactRepo) Upload(_ context.Context, key string, src io.Reader, size int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("minio unavailable")
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", errors.New("size mismatch")
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data

	return key, nil
}

func writeArtifact(t *testing.T, content string) *domain.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uploaded_image.png")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return domain.NewArtifact("uploaded_image.png", path, int64(len(content)), "image/png")
}

func TestMirror(t *testing.T) {
	t.Run("uploads the slot file", func(t *testing.T) {
		repo := &fakeArtifactRepo{}
		m := NewMirrorInfrastructure(repo, 3, logger.NewNopLogger(), context.Background())

		m.Mirror(writeArtifact(t, "xray"))
		require.NoError(t, m.WaitForMirror(context.Background()))

		assert.Equal(t, []byte("xray"), repo.objects["uploaded_image.png"])
	})

	t.Run("retries failed uploads", func(t *testing.T) {
		repo := &fakeArtifactRepo{failures: 2}
		m := NewMirrorInfrastructure(repo, 3, logger.NewNopLogger(), context.Background())
		m.baseBackoff = time.Millisecond

		m.Mirror(writeArtifact(t, "xray"))
		require.NoError(t, m.WaitForMirror(context.Background()))

		assert.Equal(t, 3, repo.calls)
		assert.Contains(t, repo.objects, "uploaded_image.png")
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		repo := &fakeArtifactRepo{failures: 10}
		m := NewMirrorInfrastructure(repo, 2, logger.NewNopLogger(), context.Background())
		m.baseBackoff = time.Millisecond

		m.Mirror(writeArtifact(t, "xray"))
		require.NoError(t, m.WaitForMirror(context.Background()))

		assert.Equal(t, 2, repo.calls)
		assert.Empty(t, repo.objects)
	})

	t.Run("shutdown interrupts backoff", func(t *testing.T) {
		repo := &fakeArtifactRepo{failures: 10}
		shutdownCtx, cancel := context.WithCancel(context.Background())
		m := NewMirrorInfrastructure(repo, 5, logger.NewNopLogger(), shutdownCtx)
		m.baseBackoff = time.Hour

		m.Mirror(writeArtifact(t, "xray"))
		cancel()

		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer waitCancel()
		require.NoError(t, m.WaitForMirror(waitCtx))
	})
}
