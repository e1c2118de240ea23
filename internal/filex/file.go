// Package filex holds small filesystem helpers for the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir and any missing parents with owner-only
// permissions. An existing directory is left as is.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// DataFile returns the path of name inside the per-user config directory
// for app, creating that directory when needed.
func DataFile(app, name string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}

	dir := filepath.Join(base, app)
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
