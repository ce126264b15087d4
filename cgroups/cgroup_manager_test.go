package cgroups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procmond/cgroups/subsystems"
	"procmond/util"
)

func readAll(t *testing.T, files ...string) map[string]string {
	t.Helper()

	contents := make(map[string]string, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		contents[f] = string(b)
	}
	return contents
}

func TestName(t *testing.T) {
	dir := filepath.Join(DefaultRoot, Name("procmond", "high_cpu"))
	assert.Equal(t, "/sys/fs/cgroup/procmond-high_cpu", dir)
}

func TestCgroupManager(t *testing.T) {
	res := &subsystems.ResourceConfig{
		CpuPercent:  25,
		MemoryLimit: 2048,
		Freeze:      true,
		OomKill:     true,
	}

	t.Run("create and set twice", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "procmond-worker")
		files := subsystems.ControlFilesFor(dir)
		c := NewCgroupManager(dir)

		created, err := c.Create()
		require.NoError(t, err)
		assert.True(t, created)
		require.NoError(t, c.Set(res))

		first := readAll(t, files.SubtreeControl, files.Freeze, files.CpuMax, files.MemoryHigh, files.MemoryMax)
		assert.Equal(t, "+pids +cpu +cpuset +memory", first[files.SubtreeControl])
		assert.Equal(t, "1", first[files.Freeze])
		assert.Equal(t, "25000 100000", first[files.CpuMax])
		assert.Equal(t, "2048", first[files.MemoryHigh])
		assert.Equal(t, "2048", first[files.MemoryMax])

		created, err = c.Create()
		require.NoError(t, err)
		assert.False(t, created, "existing cgroup must be reused")
		require.NoError(t, c.Set(res))

		second := readAll(t, files.SubtreeControl, files.Freeze, files.CpuMax, files.MemoryHigh, files.MemoryMax)
		assert.Equal(t, first, second)

		st, err := os.Stat(dir)
		require.NoError(t, err)
		assert.Zero(t, st.Mode().Perm()&^os.FileMode(dirPerm), "cgroup must not be world accessible")
	})

	t.Run("create below a file", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(root, nil, 0600))

		_, err := NewCgroupManager(filepath.Join(root, "procmond-worker")).Create()
		assert.Error(t, err)
	})

	t.Run("path is a file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "procmond-worker")
		require.NoError(t, os.WriteFile(dir, nil, 0600))

		_, err := NewCgroupManager(dir).Create()
		require.Error(t, err)
		assert.True(t, errors.Is(err, util.ErrNotDirectory))
		assert.Contains(t, err.Error(), "is not a directory")
		assert.NotContains(t, err.Error(), "failed to stat")
	})

	t.Run("write failure stops later writes", func(t *testing.T) {
		dir := t.TempDir()
		files := subsystems.ControlFilesFor(dir)
		require.NoError(t, os.Mkdir(files.CpuMax, 0750))

		err := NewCgroupManager(dir).Set(res)
		require.Error(t, err)

		var werr *subsystems.WriteError
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, files.CpuMax, werr.File)

		// Files written before the failure stay, later ones are never written.
		readAll(t, files.SubtreeControl, files.Freeze)
		_, err = os.Stat(files.MemoryHigh)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestCgroupManagerApply(t *testing.T) {
	dir := t.TempDir()
	c := NewCgroupManager(dir)

	require.NoError(t, c.Apply(4242))
	procs := subsystems.ControlFilesFor(dir).Procs
	assert.Equal(t, "4242", readAll(t, procs)[procs])

	missing := NewCgroupManager(filepath.Join(dir, "missing"))
	assert.Error(t, missing.Apply(1))
}

func TestCgroupManagerUsesGivenFiles(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()

	files := subsystems.ControlFilesFor(dir)
	files.CpuMax = filepath.Join(elsewhere, "cpu.max")
	files.Procs = filepath.Join(elsewhere, "cgroup.procs")

	c := NewCgroupManagerWithFiles(dir, files)
	require.NoError(t, c.Set(&subsystems.ResourceConfig{CpuPercent: 75, MemoryLimit: -1}))
	require.NoError(t, c.Apply(7))

	got := readAll(t, files.CpuMax, files.Procs)
	assert.Equal(t, "75000 100000", got[files.CpuMax])
	assert.Equal(t, "7", got[files.Procs])

	_, err := os.Stat(filepath.Join(dir, subsystems.CpuMaxFile))
	assert.True(t, os.IsNotExist(err), "cpu.max must only be written through the given files")
}
