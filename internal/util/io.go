package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadSource reads the source file at path. UTF-8 text, no BOM required.
func ReadSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DefaultOutputName derives the output executable name from the source file's stem, suffixed
// with "_out", when the driver is not given an explicit output name.
func DefaultOutputName(srcPath string) string {
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_out"
}
