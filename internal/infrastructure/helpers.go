package infrastructure

import (
	"net/http"
	"strings"
)

// SniffLen - сколько байт нужно http.DetectContentType.
const SniffLen = 512

// DetectContentType определяет MIME-тип по первым байтам файла.
// Если сигнатура не распознана, тип берётся по расширению (jpg, png, webp).
func DetectContentType(head []byte, ext string) string {
	const fallback = "application/octet-stream"

	if len(head) > 0 {
		if sniffed := http.DetectContentType(head[:min(len(head), SniffLen)]); sniffed != fallback {
			return sniffed
		}
	}

	switch strings.ToLower(ext) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return fallback
	}
}
