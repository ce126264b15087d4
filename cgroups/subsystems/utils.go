package subsystems

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const mountinfoPath = "/proc/self/mountinfo"

// ErrNoCgroup2 is returned when no cgroup2 hierarchy is mounted.
var ErrNoCgroup2 = errors.New("cgroup2 mountpoint not found")

// FindCgroup2Mountpoint returns the directory the unified cgroup hierarchy is
// mounted on, as listed in /proc/self/mountinfo.
// eg: 30 23 0:26 / /sys/fs/cgroup rw,nosuid,nodev,noexec,relatime shared:4 - cgroup2 cgroup2 rw
func FindCgroup2Mountpoint() (string, error) {
	f, err := os.Open(mountinfoPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to open mountinfo")
	}
	defer f.Close()

	return findCgroup2Mountpoint(f)
}

func findCgroup2Mountpoint(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		txt := scanner.Text()
		// optional fields end at the lone "-"
		sep := strings.Index(txt, " - ")
		if sep < 0 {
			continue
		}
		fields := strings.Fields(txt[:sep])
		tail := strings.Fields(txt[sep+3:])
		if len(fields) < 5 || len(tail) < 1 {
			continue
		}
		if tail[0] == "cgroup2" {
			log.Debugf("find cgroup2 mountpoint %s", fields[4])
			return fields[4], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(err, "failed to read mountinfo")
	}
	return "", ErrNoCgroup2
}

// IsCgroup2 reports whether path lives on a cgroup2 filesystem.
func IsCgroup2(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, errors.Wrapf(err, "failed to statfs %s", path)
	}
	return st.Type == unix.CGROUP2_SUPER_MAGIC, nil
}
