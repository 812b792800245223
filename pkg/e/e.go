package e

import (
	"errors"
	"fmt"
)

var (
	// Ошибки загрузчика эмбеддингов
	ErrIO    = errors.New("io error")
	ErrParse = errors.New("parse error")
	ErrShape = errors.New("shape error")

	// Ошибки слота загрузки
	ErrLockTimeout = errors.New("upload slot lock timeout")
	ErrLockLost    = errors.New("upload slot lock lost")

	// Ошибки индекса векторов
	ErrEmptyVectors    = errors.New("empty vectors")
	ErrInvalidNeighbor = errors.New("k must be in range [1, 50]")
	ErrNoNeighbors     = errors.New("no neighbors found")

	// 400 Bad Request
	ErrStatusBadRequest  = errors.New("bad request")
	ErrExpectedMultipart = errors.New("expected multipart/form-data")
	ErrMissingFile       = errors.New("no file provided")

	// 413 Request Entity Too Large
	ErrFileTooLarge = errors.New("file too large")

	// 500 Internal Server Error
	ErrInternalServerError = errors.New("internal server error")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = errors.New("incorrect env variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
