package cfg

import (
	"testing"
	"time"

	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_PORT", "STATIC_DIR", "TEMPLATES_DIR", "SWAGGER_URL",
		"UPLOAD_DIR", "UPLOAD_SLOT_NAME", "UPLOAD_DEFAULT_EXT", "UPLOAD_FIELD_NAME",
		"UPLOAD_MAX_BYTES", "UPLOAD_STRICT_STATUS", "UPLOAD_LOCK_BACKEND", "MINIO_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Http.Port)
	assert.Equal(t, "static", cfg.Http.StaticDir)
	assert.Equal(t, ".", cfg.Upload.Dir)
	assert.Equal(t, "uploaded_image", cfg.Upload.SlotName)
	assert.Equal(t, "jpg", cfg.Upload.DefaultExt)
	assert.Equal(t, "file", cfg.Upload.FieldName)
	assert.Equal(t, int64(15<<20), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Upload.StrictStatus)
	assert.Equal(t, LockBackendLocal, cfg.Upload.LockBackend)
	assert.False(t, cfg.Minio.Enabled())
	assert.Nil(t, cfg.Redis)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("UPLOAD_DIR", "/tmp/slots")
	t.Setenv("UPLOAD_DEFAULT_EXT", ".png")
	t.Setenv("UPLOAD_STRICT_STATUS", "true")
	t.Setenv("UPLOAD_LOCK_BACKEND", "Redis")
	t.Setenv("UPLOAD_LOCK_TTL", "5s")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")

	cfg, err := Load(logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Http.Port)
	assert.Equal(t, "http://localhost:9000/swagger/doc.json", cfg.Http.SwaggerURL)
	assert.Equal(t, "/tmp/slots", cfg.Upload.Dir)
	assert.Equal(t, "png", cfg.Upload.DefaultExt)
	assert.True(t, cfg.Upload.StrictStatus)
	assert.Equal(t, LockBackendRedis, cfg.Upload.LockBackend)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
	assert.True(t, cfg.Minio.Enabled())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "HTTP_READ_TIMEOUT", "soon"},
		{"bad bool", "UPLOAD_STRICT_STATUS", "maybe"},
		{"bad size", "UPLOAD_MAX_BYTES", "-1"},
		{"bad lock backend", "UPLOAD_LOCK_BACKEND", "etcd"},
		{"slot with separator", "UPLOAD_SLOT_NAME", "../escape"},
		{"bad retries", "MINIO_MAX_RETRIES", "zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(logger.NewNopLogger())
			assert.Error(t, err)
		})
	}
}

func TestLoadQdrant(t *testing.T) {
	t.Setenv("QDRANT_GRPC_PORT", "7000")

	q, err := LoadQdrant(logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 7000, q.Port)
	assert.Equal(t, "xray_embeddings", q.QdrantCollectionName)

	t.Setenv("QDRANT_GRPC_PORT", "port")
	_, err = LoadQdrant(logger.NewNopLogger())
	assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
}
