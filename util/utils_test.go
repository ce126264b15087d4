package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	ok, err := DirExists(dir)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = DirExists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = DirExists(file)
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "procmond.lock")

	l, err := TryLock(path)
	require.NoError(t, err)

	_, err = TryLock(path)
	assert.Equal(t, ErrLockedElsewhere, err)

	require.NoError(t, l.Unlock())

	l, err = TryLock(path)
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "procmond.lock")

	l, err := Lock(context.Background(), path)
	require.NoError(t, err)

	t.Run("held until timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := Lock(ctx, path)
		assert.True(t, errors.Is(err, ErrLockedElsewhere))
	})

	t.Run("released while waiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		go func() {
			time.Sleep(50 * time.Millisecond)
			l.Unlock()
		}()

		waited, err := Lock(ctx, path)
		require.NoError(t, err)
		require.NoError(t, waited.Unlock())
	})
}
