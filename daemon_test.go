package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"procmond/rules"
	"procmond/util"
)

func testContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("procmond", flag.ContinueOnError)
	for _, name := range []string{"config", "rules-dir", "daemon-name", "cgroup-root", "log-level", "log-format"} {
		set.String(name, "", "")
	}
	set.Duration("lock-timeout", 0, "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadSettingsOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "procmond.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("daemon_name: fromfile\nrules_directory: /from/file\n"), 0644))

	ctx := testContext(t,
		"-config", cfg,
		"-rules-dir", dir,
		"-cgroup-root", dir,
		"-log-format", "text",
	)

	s, err := loadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", s.Name)
	assert.Equal(t, dir, s.RulesDirectory)
	assert.Equal(t, dir, s.CgroupRoot)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, "info", s.LogLevel)
}

func TestLoadSettingsRejectsBadOverride(t *testing.T) {
	dir := t.TempDir()
	ctx := testContext(t,
		"-config", filepath.Join(dir, "missing.yaml"),
		"-log-format", "xml",
	)

	_, err := loadSettings(ctx)
	assert.Error(t, err)
}

func TestLoadSettingsOverrideFixesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "procmond.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: chatty\ncgroup_root: "+dir+"\n"), 0644))

	_, err := loadSettings(testContext(t, "-config", cfg))
	assert.Error(t, err, "invalid log_level without override")

	s, err := loadSettings(testContext(t, "-config", cfg, "-log-level", "debug", "-lock-timeout", "3s"))
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 3*time.Second, s.LockTimeout)
}

func TestAcquireLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procmond.lock")

	held, err := util.TryLock(path)
	require.NoError(t, err)
	defer held.Unlock()

	for _, timeout := range []time.Duration{0, 50 * time.Millisecond} {
		_, err := acquireLock(path, timeout)
		require.Error(t, err, "timeout %v", timeout)

		exit, ok := err.(cli.ExitCoder)
		require.True(t, ok, "timeout %v", timeout)
		assert.Equal(t, 2, exit.ExitCode())
	}

	require.NoError(t, held.Unlock())

	l, err := acquireLock(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}

func TestPrintLookupOrder(t *testing.T) {
	store := rules.NewStore()
	store.Put(&rules.Rule{Name: "short", Command: "foo"})
	store.Put(&rules.Rule{Name: "long", Command: "foobar", EnableLimiting: true, CgroupRootDir: "/sys/fs/cgroup/procmond-long"})

	var out bytes.Buffer
	require.NoError(t, printLookupOrder(&out, store))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ORDER"))
	assert.Equal(t, []string{"1", "long", "foobar", "true", "/sys/fs/cgroup/procmond-long"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "short", "foo", "false"}, strings.Fields(lines[2]))
}
