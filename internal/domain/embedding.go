package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет одну строку матрицы эмбеддингов, подготовленную для векторного индекса
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

func NewPayload(label string, row int) Payload {
	return Payload{
		"label":      label,
		"row":        int64(row),
		"created_at": time.Now().UTC().UnixNano(),
	}
}

// Neighbor - найденный в индексе сосед.
type Neighbor struct {
	ID    string
	Label string
	Score float32
}
