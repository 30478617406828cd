package util

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

const sniffLen = 512

var uploadableImageMIMEs = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

// SniffMIME detects the content type of r from its first bytes. The
// returned reader replays those bytes followed by the rest of r.
func SniffMIME(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]

	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// IsUploadableImageMIME reports whether images of this type can be decoded
// and transformed.
func IsUploadableImageMIME(mimeType string) bool {
	_, ok := uploadableImageMIMEs[normalizeMIME(mimeType)]
	return ok
}

func ExtensionForMIME(mimeType string) string {
	return uploadableImageMIMEs[normalizeMIME(mimeType)]
}

func IsImageExtension(extension string) bool {
	switch strings.ToLower(strings.TrimSpace(extension)) {
	case ".png", ".jpg", ".jpeg", ".jpe", ".jfif", ".gif", ".webp", ".bmp", ".dib", ".tiff", ".tif":
		return true
	default:
		return false
	}
}

func normalizeMIME(mimeType string) string {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(cleaned, ";"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}
	return cleaned
}
