// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "medical_ann"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// UploadsTotal считает загрузки в слот.
	// Labels: result (success, error)
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "uploads_total",
			Help:      "Total number of upload attempts by result",
		},
		[]string{"result"},
	)

	// UploadBytes - размер сохранённых файлов.
	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "stored_bytes",
			Help:      "Size of stored upload artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// MirrorTotal считает попытки зеркалирования в MinIO.
	// Labels: result (success, error)
	MirrorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "operations_total",
			Help:      "Total number of artifact mirror operations by result",
		},
		[]string{"result"},
	)

	// IndexedVectors считает векторы, записанные в индекс.
	IndexedVectors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "vectors_total",
			Help:      "Total number of embedding vectors written to the vector index",
		},
	)
)
