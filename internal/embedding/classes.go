package embedding

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
)

// ClassFileSuffix - суффикс файлов с эмбеддингами одного класса: <Class>_embeddings.csv
const ClassFileSuffix = "_embeddings.csv"

// Classes - матрицы эмбеддингов, сгруппированные по метке класса.
type Classes map[string]*domain.EmbeddingMatrix

// Labels возвращает метки в отсортированном порядке.
func (c Classes) Labels() []string {
	labels := make([]string, 0, len(c))
	for label := range c {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	return labels
}

// Dim возвращает общую размерность векторов (0, если все классы пусты).
func (c Classes) Dim() int {
	for _, m := range c {
		if m.Rows() > 0 {
			return m.Cols()
		}
	}

	return 0
}

// LoadClasses загружает все файлы <Class>_embeddings.csv из каталога.
// Метка - часть имени файла до первого "_". Размерность должна совпадать во всех классах.
func LoadClasses(dir string) (Classes, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}

	classes := make(Classes)
	dim := -1
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ClassFileSuffix) {
			continue
		}

		label, _, _ := strings.Cut(name, "_")
		if label == "" {
			continue
		}

		m, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		if m.Rows() > 0 {
			if dim >= 0 && m.Cols() != dim {
				return nil, e.Wrap(name, fmt.Errorf("%w: dimension %d differs from %d", e.ErrShape, m.Cols(), dim))
			}
			dim = m.Cols()
		}

		if prev, ok := classes[label]; ok {
			merged, err := concat(prev, m)
			if err != nil {
				return nil, e.Wrap(name, err)
			}
			m = merged
		}
		classes[label] = m
	}

	return classes, nil
}

// concat склеивает две матрицы одного класса по строкам.
func concat(a, b *domain.EmbeddingMatrix) (*domain.EmbeddingMatrix, error) {
	if a.Rows() == 0 {
		return b, nil
	}
	if b.Rows() == 0 {
		return a, nil
	}
	if a.Cols() != b.Cols() {
		return nil, fmt.Errorf("%w: cannot concat %d and %d columns", e.ErrShape, a.Cols(), b.Cols())
	}

	data := make([]float32, 0, (a.Rows()+b.Rows())*a.Cols())
	for i := 0; i < a.Rows(); i++ {
		data = append(data, a.Row(i)...)
	}
	for i := 0; i < b.Rows(); i++ {
		data = append(data, b.Row(i)...)
	}

	return domain.NewEmbeddingMatrix(a.Rows()+b.Rows(), a.Cols(), data), nil
}
