package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/internal/metrics"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/google/uuid"
)

const (
	MinNeighbors     = 1
	MaxNeighbors     = 50
	DefaultNeighbors = 20

	upsertBatchSize = 256
)

// IndexUseCase строит векторный индекс по матрицам эмбеддингов классов
// и классифицирует вектор голосованием k ближайших соседей.
type IndexUseCase struct {
	embeddingRepo EmbeddingRepository
	logger        logger.Logger
}

func NewIndexUC(embeddingRepo EmbeddingRepository, logger logger.Logger) *IndexUseCase {
	return &IndexUseCase{
		embeddingRepo: embeddingRepo,
		logger:        logger,
	}
}

// IndexClasses сохраняет каждую строку каждой матрицы как точку с меткой класса.
// Возвращает число сохранённых точек.
func (u *IndexUseCase) IndexClasses(ctx context.Context, classes map[string]*domain.EmbeddingMatrix) (int, error) {
	const op = "IndexUseCase.IndexClasses"

	dim, err := classesDim(classes)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	if err := u.embeddingRepo.EnsureCollection(ctx, uint64(dim)); err != nil {
		return 0, e.Wrap(op, err)
	}

	labels := make([]string, 0, len(classes))
	for label := range classes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	total := 0
	batch := make([]domain.Embedding, 0, upsertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.embeddingRepo.Upsert(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, label := range labels {
		m := classes[label]
		if m == nil {
			continue
		}
		for i := 0; i < m.Rows(); i++ {
			batch = append(batch, *domain.NewEmbedding(PointID(label, i), m.Row(i), domain.NewPayload(label, i)))
			if len(batch) == upsertBatchSize {
				if err := flush(); err != nil {
					return total, e.Wrap(op, err)
				}
			}
		}
		u.logger.Infof("indexed class %s: %d vectors", label, m.Rows())
	}

	if err := flush(); err != nil {
		return total, e.Wrap(op, err)
	}

	metrics.IndexedVectors.Add(float64(total))
	return total, nil
}

// PointID возвращает детерминированный ID точки для строки row класса label,
// поэтому повторная индексация перезаписывает точки, а не дублирует их.
func PointID(label string, row int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(label+"/"+strconv.Itoa(row))).String()
}

// Classify ищет k ближайших соседей и возвращает метку большинства.
func (u *IndexUseCase) Classify(ctx context.Context, vector []float32, k int) (*domain.Classification, error) {
	const op = "IndexUseCase.Classify"

	if k < MinNeighbors || k > MaxNeighbors {
		return nil, e.Wrap(op, e.ErrInvalidNeighbor)
	}
	if len(vector) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyVectors)
	}

	neighbors, err := u.embeddingRepo.Search(ctx, vector, uint64(k))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result, err := Vote(neighbors)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return result, nil
}

// Vote подсчитывает метки соседей. При равенстве голосов побеждает метка,
// встретившаяся раньше (соседи упорядочены от ближнего к дальнему).
func Vote(neighbors []domain.Neighbor) (*domain.Classification, error) {
	if len(neighbors) == 0 {
		return nil, e.ErrNoNeighbors
	}

	counts := make([]domain.LabelCount, 0)
	index := make(map[string]int)
	for _, n := range neighbors {
		i, ok := index[n.Label]
		if !ok {
			i = len(counts)
			index[n.Label] = i
			counts = append(counts, domain.LabelCount{Label: n.Label})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return &domain.Classification{
		Label:  counts[0].Label,
		Counts: counts,
	}, nil
}

func classesDim(classes map[string]*domain.EmbeddingMatrix) (int, error) {
	dim := 0
	for label, m := range classes {
		if m == nil || m.Rows() == 0 {
			continue
		}
		if dim != 0 && m.Cols() != dim {
			return 0, fmt.Errorf("%w: class %s has dimension %d, expected %d", e.ErrShape, label, m.Cols(), dim)
		}
		dim = m.Cols()
	}

	if dim == 0 {
		return 0, e.ErrEmptyVectors
	}

	return dim, nil
}
