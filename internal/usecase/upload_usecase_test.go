package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultSlot = SlotCfg{SlotName: "uploaded_image", DefaultExt: "jpg"}

type fakeSlotRepo struct {
	mu     sync.Mutex
	writes map[string][]byte
	err    error
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{writes: make(map[string][]byte)}
}

func (f *fakeSlotRepo) Write(_ context.Context, name string, src io.Reader) (*domain.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.writes[name] = data
	f.mu.Unlock()

	return domain.NewArtifact(name, "/slots/"+name, int64(len(data)), "application/octet-stream"), nil
}

type fakeLocker struct {
	mu     sync.Mutex
	keys   []string
	err    error
	locked int
}

func (f *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.locked++
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.locked--
		f.mu.Unlock()
	}, nil
}

type fakeMirror struct {
	mu        sync.Mutex
	artifacts []*domain.Artifact
}

func (f *fakeMirror) Mirror(artifact *domain.Artifact) {
	f.mu.Lock()
	f.artifacts = append(f.artifacts, artifact)
	f.mu.Unlock()
}

func TestResolveSlotName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{name: "png upload", fileName: "scan.png", want: "uploaded_image.png"},
		{name: "no file name", fileName: "", want: "uploaded_image.jpg"},
		{name: "no extension", fileName: "report", want: "uploaded_image.jpg"},
		{name: "last dot wins", fileName: "archive.tar.gz", want: "uploaded_image.gz"},
		{name: "dot file", fileName: ".png", want: "uploaded_image.jpg"},
		{name: "trailing dot", fileName: "scan.", want: "uploaded_image.jpg"},
		{name: "unix path", fileName: "dir.v2/scan", want: "uploaded_image.jpg"},
		{name: "windows path", fileName: `C:\xrays\chest.PNG`, want: "uploaded_image.PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlotFileName(defaultSlot, tt.fileName))
		})
	}
}

func TestStoreUpload(t *testing.T) {
	t.Run("writes the slot and mirrors it", func(t *testing.T) {
		repo := newFakeSlotRepo()
		locker := &fakeLocker{}
		mirror := &fakeMirror{}
		uc := NewUploadUC(repo, locker, mirror, defaultSlot, time.Second, logger.NewNopLogger())

		res, err := uc.StoreUpload(context.Background(), NewUploadReq("scan.png", strings.NewReader("png-bytes")))
		require.NoError(t, err)

		assert.Equal(t, "uploaded_image.png", res.Artifact.Name)
		assert.Equal(t, []byte("png-bytes"), repo.writes["uploaded_image.png"])
		assert.Equal(t, []string{"uploaded_image.png"}, locker.keys)
		assert.Zero(t, locker.locked)
		require.Len(t, mirror.artifacts, 1)
		assert.Equal(t, res.Artifact, mirror.artifacts[0])
	})

	t.Run("nil mirror is allowed", func(t *testing.T) {
		uc := NewUploadUC(newFakeSlotRepo(), &fakeLocker{}, nil, defaultSlot, 0, logger.NewNopLogger())

		_, err := uc.StoreUpload(context.Background(), NewUploadReq("", bytes.NewReader(nil)))
		assert.NoError(t, err)
	})

	t.Run("write failure releases the lock", func(t *testing.T) {
		repo := newFakeSlotRepo()
		repo.err = e.ErrIO
		locker := &fakeLocker{}
		mirror := &fakeMirror{}
		uc := NewUploadUC(repo, locker, mirror, defaultSlot, time.Second, logger.NewNopLogger())

		_, err := uc.StoreUpload(context.Background(), NewUploadReq("scan.png", strings.NewReader("x")))
		assert.ErrorIs(t, err, e.ErrIO)
		assert.Zero(t, locker.locked)
		assert.Empty(t, mirror.artifacts)
	})

	t.Run("lock failure skips the write", func(t *testing.T) {
		repo := newFakeSlotRepo()
		locker := &fakeLocker{err: e.ErrLockTimeout}
		uc := NewUploadUC(repo, locker, nil, defaultSlot, time.Second, logger.NewNopLogger())

		_, err := uc.StoreUpload(context.Background(), NewUploadReq("scan.png", strings.NewReader("x")))
		assert.True(t, errors.Is(err, e.ErrLockTimeout))
		assert.Empty(t, repo.writes)
	})
}

func TestStoreUploadConcurrent(t *testing.T) {
	repo := newFakeSlotRepo()
	uc := NewUploadUC(repo, &fakeLocker{}, nil, defaultSlot, time.Second, logger.NewNopLogger())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, body := range []string{"first", "second"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = uc.StoreUpload(context.Background(), NewUploadReq("a.png", strings.NewReader(body)))
		}()
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Contains(t, []string{"first", "second"}, string(repo.writes["uploaded_image.png"]))
}
