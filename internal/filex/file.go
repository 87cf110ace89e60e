// Package filex holds small filesystem helpers for the client.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (relative to the working directory unless absolute)
// and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// SaveNew writes data to dir/name, creating dir when needed. An existing
// file is never overwritten: a numeric suffix is appended instead.
func SaveNew(dir, name string, data []byte) (string, error) {
	root, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}

	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	for i := 0; i < 100; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		path := filepath.Join(root, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("no free name for %s in %s", base, root)
}
