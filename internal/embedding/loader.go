// Package embedding загружает матрицы эмбеддингов из CSV-файлов без заголовка.
package embedding

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/DRSN-tech/medical-ann/internal/domain"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
)

// Load читает CSV целиком и возвращает матрицу row-major.
// Любое некорректное поле прерывает загрузку: частичных результатов нет.
func Load(path string) (*domain.EmbeddingMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrIO, err))
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, e.Wrap(path, err)
	}

	return m, nil
}

// Read разбирает CSV из r. Используется Load и тестами.
func Read(r io.Reader) (*domain.EmbeddingMatrix, error) {
	const op = "embedding.Read"

	reader := csv.NewReader(r)
	// FieldsPerRecord == 0: число полей фиксируется по первой строке
	reader.FieldsPerRecord = 0

	records, err := reader.ReadAll()
	if err != nil {
		return nil, e.Wrap(op, classifyCSVError(err))
	}

	rows := len(records)
	cols := 0
	if rows > 0 {
		cols = len(records[0])
	}

	flat := make([]float32, 0, rows*cols)
	for i, record := range records {
		if len(record) != cols {
			return nil, e.Wrap(op, fmt.Errorf("%w: line %d has %d fields, expected %d", e.ErrShape, i+1, len(record), cols))
		}

		for j, field := range record {
			v, err := parseField(field)
			if err != nil {
				return nil, e.Wrap(op, fmt.Errorf("%w: line %d, field %d: %v", e.ErrParse, i+1, j+1, err))
			}
			flat = append(flat, v)
		}
	}

	if len(flat) != rows*cols {
		return nil, e.Wrap(op, fmt.Errorf("%w: got %d values for shape (%d, %d)", e.ErrShape, len(flat), rows, cols))
	}

	return domain.NewEmbeddingMatrix(rows, cols, flat), nil
}

// parseField принимает только конечные десятичные числа, представимые во float32.
func parseField(field string) (float32, error) {
	if strings.ContainsAny(field, "xX_") {
		return 0, fmt.Errorf("%q is not a base-10 number", field)
	}

	v, err := strconv.ParseFloat(field, 32)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", field)
	}

	return float32(v), nil
}

func classifyCSVError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		if errors.Is(parseErr.Err, csv.ErrFieldCount) {
			return fmt.Errorf("%w: %v", e.ErrShape, err)
		}

		return fmt.Errorf("%w: %v", e.ErrParse, err)
	}

	return fmt.Errorf("%w: %w", e.ErrIO, err)
}
