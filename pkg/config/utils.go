package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ErrEnvFileNotFound wraps os.ErrNotExist for a storefront env file that could
// not be located.
var ErrEnvFileNotFound = fmt.Errorf("env file not found: %w", os.ErrNotExist)

// FindEnvFile locates the BFF env file name, ".env" when empty. An absolute name
// is checked as is. A relative one is searched from the working directory
// upward, stopping at the module root (the first directory holding go.mod) so
// cmd/server and package tests share one file.
func FindEnvFile(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		if !isFile(name) {
			return "", fmt.Errorf("%w: %s", ErrEnvFileNotFound, name)
		}
		return name, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	for {
		if candidate := filepath.Join(dir, name); isFile(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if isFile(filepath.Join(dir, "go.mod")) || parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s", ErrEnvFileNotFound, name)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
