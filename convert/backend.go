// Package convert turns a single RAW file into a JPEG. It holds the
// backend capability, the two concrete backends and the fallback chain
// that composes them.
package convert

import (
	"path/filepath"
	"strings"
)

// Backend converts one source image into a JPEG at target.
type Backend interface {
	Name() string
	Convert(source, target string) error
}

// OutputPath returns destDir/<source base name without extension>.jpg.
func OutputPath(source, destDir string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(destDir, stem+".jpg")
}
