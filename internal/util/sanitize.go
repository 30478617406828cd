package util

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"atlantic-photo/internal/model"
)

const maxFilenameRunes = 255

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename cleans a client supplied upload name so it can be passed
// to a provider as a display name. Path separators are replaced, invisible
// characters removed and the result truncated by runes.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: filename cannot be empty", model.ErrValidationFailed)
	}

	builder := strings.Builder{}
	builder.Grow(len(trimmed))
	for _, char := range trimmed {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(builder.String(), "_"))
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "", fmt.Errorf("%w: filename %q is invalid after sanitization", model.ErrValidationFailed, trimmed)
	}

	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		runes = runes[:maxFilenameRunes]
	}
	return string(runes), nil
}

// isInvisibleUnicode returns true for zero-width and other format characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u200E', '\u200F', '\u2060', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}
