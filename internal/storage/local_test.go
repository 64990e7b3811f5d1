// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewLocalPublisher(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")

	p, err := NewLocalPublisher(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, p.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalPublisher_Publish(t *testing.T) {
	t.Parallel()

	src := writeFile(t, t.TempDir(), "call.wav", "RIFF data")
	dir := t.TempDir()

	p, err := NewLocalPublisher(dir)
	require.NoError(t, err)

	loc, err := p.Publish(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "call.wav"), loc)

	content, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "RIFF data", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestLocalPublisher_Publish_Overwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "call.wav", "old")
	src := writeFile(t, t.TempDir(), "call.wav", "new")

	p, err := NewLocalPublisher(dir)
	require.NoError(t, err)

	loc, err := p.Publish(context.Background(), src)
	require.NoError(t, err)

	content, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestLocalPublisher_Publish_Missing(t *testing.T) {
	t.Parallel()

	p, err := NewLocalPublisher(t.TempDir())
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalPublisher_Publish_Canceled(t *testing.T) {
	t.Parallel()

	src := writeFile(t, t.TempDir(), "call.wav", "data")
	dir := t.TempDir()

	p, err := NewLocalPublisher(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Publish(ctx, src)
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
