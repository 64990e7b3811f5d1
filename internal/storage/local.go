// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalPublisher copies files into a directory.
type LocalPublisher struct {
	dir string
}

// NewLocalPublisher creates the directory if it doesn't exist.
func NewLocalPublisher(dir string) (*LocalPublisher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create publish directory: %w", err)
	}

	return &LocalPublisher{dir: dir}, nil
}

func (p *LocalPublisher) Dir() string { return p.dir }

// Publish copies path into the directory through a temporary file, so a
// partial copy is never visible under the final name.
func (p *LocalPublisher) Publish(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	src, err := os.Open(path) // #nosec G304 - path is one of our outputs
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	dst := filepath.Join(p.dir, filepath.Base(path))
	tmp, err := os.CreateTemp(p.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("copy %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename to %s: %w", dst, err)
	}

	return dst, nil
}
