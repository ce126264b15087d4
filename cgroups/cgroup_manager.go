package cgroups

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"procmond/cgroups/subsystems"
	"procmond/util"
)

// DefaultRoot is where the unified cgroup hierarchy is usually mounted.
const DefaultRoot = "/sys/fs/cgroup"

// dirPerm keeps the cgroup readable by the daemon's group only.
const dirPerm = 0750

type CgroupManager struct {
	// absolute path of the cgroup directory
	Path string
	// control files written by Set and Apply
	Files subsystems.ControlFiles
	Log   *log.Entry
}

// NewCgroupManager manages the cgroup at path with its standard control
// files.
func NewCgroupManager(path string) *CgroupManager {
	return NewCgroupManagerWithFiles(path, subsystems.ControlFilesFor(path))
}

// NewCgroupManagerWithFiles manages the cgroup at path through already
// derived control file paths.
func NewCgroupManagerWithFiles(path string, files subsystems.ControlFiles) *CgroupManager {
	return &CgroupManager{
		Path:  path,
		Files: files,
		Log:   log.WithField("cgroup", path),
	}
}

// Create makes the cgroup directory. An existing directory is not an error,
// so provisioning the same cgroup twice is safe.
func (c *CgroupManager) Create() (created bool, err error) {
	exists, err := util.DirExists(c.Path)
	if err != nil {
		if errors.Is(err, util.ErrNotDirectory) {
			return false, errors.Wrapf(err, "cgroup path %s is not a directory", c.Path)
		}
		return false, errors.Wrapf(err, "failed to stat cgroup %s", c.Path)
	}
	if exists {
		c.Log.Infof("cgroup %s already exists", c.Path)
		return false, nil
	}
	if err := os.Mkdir(c.Path, dirPerm); err != nil {
		return false, errors.Wrapf(err, "failed to create cgroup %s", c.Path)
	}
	c.Log.Infof("created cgroup %s", c.Path)
	return true, nil
}

// Set writes the limits of every subsystem in order. The first failing write
// aborts; files written before it are kept as they are.
func (c *CgroupManager) Set(res *subsystems.ResourceConfig) error {
	for _, subSysIns := range subsystems.SubsystemsIns {
		if err := subSysIns.Set(&c.Files, res); err != nil {
			c.Log.Errorf("set %s subsystem error %v", subSysIns.Name(), err)
			return errors.Wrapf(err, "failed to set %s limits", subSysIns.Name())
		}
		c.Log.Debugf("set %s subsystem", subSysIns.Name())
	}
	return nil
}

// Apply moves the process pid into the cgroup.
func (c *CgroupManager) Apply(pid int) error {
	procs := c.Files.Procs
	if err := os.WriteFile(procs, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return errors.Wrapf(err, "failed to add pid %d to %s", pid, procs)
	}
	c.Log.Infof("added pid %d to cgroup", pid)
	return nil
}
