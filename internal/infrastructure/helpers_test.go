package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	tests := []struct {
		name string
		head []byte
		ext  string
		want string
	}{
		{name: "sniffed png", head: png, ext: "jpg", want: "image/png"},
		{name: "unknown bytes, jpg extension", head: []byte{0x00, 0x01, 0x02}, ext: "JPG", want: "image/jpeg"},
		{name: "empty, webp extension", head: nil, ext: "webp", want: "image/webp"},
		{name: "unknown everything", head: []byte{0x00}, ext: "bin", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContentType(tt.head, tt.ext))
		})
	}
}
