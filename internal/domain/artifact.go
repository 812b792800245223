package domain

import "time"

// Artifact описывает файл, сохранённый в слот загрузки.
type Artifact struct {
	Name        string // имя файла в слоте, например uploaded_image.png
	Path        string // полный путь на диске
	Size        int64
	ContentType string
	StoredAt    time.Time
}

func NewArtifact(name string, path string, size int64, contentType string) *Artifact {
	return &Artifact{
		Name:        name,
		Path:        path,
		Size:        size,
		ContentType: contentType,
		StoredAt:    time.Now().UTC(),
	}
}
