// Package media implements the image rehosting pipeline and its storage
// backends.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig captures the parameters for the local filesystem blob store.
type LocalConfig struct {
	// BaseDir is the root directory where uploads are stored. Created on
	// first use if absent.
	BaseDir string `mapstructure:"base_dir"`
	// PublicBase is the URL prefix the stored files are served under.
	PublicBase string `mapstructure:"public_base"`
}

// LocalStore writes uploads to the local filesystem.
type LocalStore struct {
	baseDir    string
	publicBase string
}

// NewLocalStore creates a filesystem-backed blob store rooted at BaseDir.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	publicBase := strings.TrimSuffix(cfg.PublicBase, "/")
	if publicBase == "" {
		publicBase = "/uploads"
	}

	return &LocalStore{
		baseDir:    cfg.BaseDir,
		publicBase: publicBase,
	}, nil
}

// Put writes data to a file under the base directory and returns the stored
// path plus the public URL it will be served from.
func (s *LocalStore) Put(_ context.Context, name, _ string, data []byte) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("name is required")
	}
	// Filenames are generated by the pipeline; reject anything that would
	// escape the base directory.
	if name != filepath.Base(name) {
		return "", "", fmt.Errorf("name must not contain path separators")
	}

	fullPath := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}

	return fullPath, s.publicBase + "/" + name, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("name must not contain path separators")
	}
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
