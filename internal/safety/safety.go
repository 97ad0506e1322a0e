package safety

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideBase — путь узла выходит за пределы базового каталога.
var ErrOutsideBase = errors.New("path escapes base directory")

// SafeJoin объединяет base и сегменты и убеждается, что результат остаётся внутри base.
// Хвостовые "/" у сегментов срезаются; сегмент может содержать несколько уровней ("a/b.txt").
func SafeJoin(base string, segments ...string) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	for _, s := range segments {
		parts = append(parts, strings.TrimRight(s, "/"))
	}
	p := filepath.Join(parts...)

	rel, err := filepath.Rel(filepath.Clean(base), p)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, p)
	}
	relSl := filepath.ToSlash(rel)
	if relSl == ".." || strings.HasPrefix(relSl, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, p)
	}
	return p, nil
}
