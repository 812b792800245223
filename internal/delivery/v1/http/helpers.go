package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/jimlawless/whereami"
)

const (
	UploadSuccessMessage = "File uploaded successfully!"
	UploadFailureMessage = "File upload failed."
)

// ToHTTPResponse сопоставляет ошибку загрузки с HTTP-статусом.
func ToHTTPResponse(err error) int {
	switch {
	case errors.Is(err, e.ErrExpectedMultipart),
		errors.Is(err, e.ErrMissingFile),
		errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, e.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
		}

		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}

// uploadedFile возвращает содержимое и исходное имя файла из формы.
// Порядок поиска: файл в поле field, значение поля field без имени файла, любой файл формы.
func uploadedFile(form *multipart.Form, field string) (io.ReadCloser, string, error) {
	if fhs := form.File[field]; len(fhs) > 0 {
		return openFileHeader(fhs[0])
	}

	// Часть без filename multipart кладёт в Value: это файл без имени
	if vals := form.Value[field]; len(vals) > 0 {
		return io.NopCloser(strings.NewReader(vals[0])), "", nil
	}

	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if fhs := form.File[key]; len(fhs) > 0 {
			return openFileHeader(fhs[0])
		}
	}

	return nil, "", e.Wrap(whereami.WhereAmI(), e.ErrMissingFile)
}

func openFileHeader(fh *multipart.FileHeader) (io.ReadCloser, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), e.ErrIO)
	}

	return f, fh.Filename, nil
}
