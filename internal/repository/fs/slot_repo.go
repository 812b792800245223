package fs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/internal/infrastructure"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
)

// SlotRepo пишет артефакты в каталог слота на локальном диске.
type SlotRepo struct {
	dir string
}

func NewSlotRepo(dir string) *SlotRepo {
	return &SlotRepo{dir: dir}
}

// Write пишет src во временный файл рядом со слотом и атомарно переименовывает его в name.
// Читатели слота видят либо старую, либо новую версию целиком.
func (s *SlotRepo) Write(ctx context.Context, name string, src io.Reader) (*domain.Artifact, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: invalid slot name %q", e.ErrIO, name))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	br := bufio.NewReaderSize(&ctxReader{ctx: ctx, r: src}, infrastructure.SniffLen)
	head, _ := br.Peek(infrastructure.SniffLen)
	contentType := infrastructure.DetectContentType(head, strings.TrimPrefix(filepath.Ext(name), "."))

	size, err := io.Copy(tmp, br)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	if err := tmp.Sync(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	if err := tmp.Close(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}
	committed = true

	return domain.NewArtifact(name, target, size, contentType), nil
}

// ctxReader прерывает копирование при отмене контекста запроса.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
