package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"atlantic-photo/internal/model"
)

// PathValidator maps slash-separated asset keys onto absolute paths under a
// root directory and refuses anything that would escape it.
type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

// Resolve returns the absolute location of key. Keys must name a file: the
// root itself is rejected.
func (v *PathValidator) Resolve(key string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", fmt.Errorf("%w: asset key contains invalid characters", model.ErrValidationFailed)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", fmt.Errorf("asset %q: %w", key, model.ErrNotFound)
		}
	}

	cleanRel := filepath.Clean(strings.TrimPrefix(normalized, "/"))
	if cleanRel == "." || cleanRel == "" {
		return "", fmt.Errorf("%w: asset key is empty", model.ErrValidationFailed)
	}

	resolvedAbs, err := filepath.Abs(filepath.Join(v.rootAbs, cleanRel))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if !isWithinRoot(v.rootAbs, resolvedAbs) {
		return "", fmt.Errorf("asset %q: %w", key, model.ErrNotFound)
	}

	return resolvedAbs, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}

	return strings.HasPrefix(candidateAbs, rootAbs+string(filepath.Separator))
}
