// Package config loads the procmond daemon settings.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"procmond/cgroups"
	"procmond/cgroups/subsystems"
	"procmond/rules"
)

// DefaultPath is read when no config file is given.
const DefaultPath = "/etc/procmond/procmond.yaml"

// AutoCgroupRoot makes Resolve look the cgroup2 mountpoint up.
const AutoCgroupRoot = "auto"

// Settings are the daemon-wide settings. It implements rules.Settings.
type Settings struct {
	Name           string `yaml:"daemon_name"`
	RulesDirectory string `yaml:"rules_directory"`
	RuleSuffix     string `yaml:"rule_suffix"`
	CgroupRoot     string `yaml:"cgroup_root"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	LockFile       string `yaml:"lock_file"`
	// how long load and attach wait for another instance to release the
	// lock, 0 fails at once
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

var _ rules.Settings = (*Settings)(nil)

// Default returns the settings used for anything a config file leaves out.
func Default() Settings {
	return Settings{
		Name:           "procmond",
		RulesDirectory: "/etc/procmond/rules.d",
		RuleSuffix:     rules.DefaultSuffix,
		CgroupRoot:     cgroups.DefaultRoot,
		LogLevel:       "info",
		LogFormat:      "json",
		LockFile:       "/run/procmond/procmond.lock",
	}
}

// Load reads the YAML settings file at path on top of the defaults. A missing
// file is not an error and yields the defaults. The result is not validated
// so command line overrides can still fix it; call Validate once they are
// applied.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("config file %s not found, using defaults", path)
			return s, nil
		}
		return Settings{}, errors.Wrap(err, "failed to read config")
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, errors.Wrapf(err, "failed to decode config %s", path)
	}

	return s, nil
}

// Validate checks that the settings can drive a rule manager.
func (s Settings) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("daemon_name must not be empty")
	case s.RulesDirectory == "":
		return errors.New("rules_directory must not be empty")
	case s.RuleSuffix == "":
		return errors.New("rule_suffix must not be empty")
	case s.CgroupRoot == "":
		return errors.New("cgroup_root must not be empty")
	case s.LockFile == "":
		return errors.New("lock_file must not be empty")
	case s.LockTimeout < 0:
		return errors.New("lock_timeout must not be negative")
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	if s.LogFormat != "json" && s.LogFormat != "text" {
		return errors.Errorf("unknown log_format %q, use json or text", s.LogFormat)
	}
	return nil
}

// Resolve replaces AutoCgroupRoot with the mountpoint of the cgroup2
// hierarchy.
func (s *Settings) Resolve() error {
	if s.CgroupRoot != AutoCgroupRoot {
		return nil
	}
	mnt, err := subsystems.FindCgroup2Mountpoint()
	if err != nil {
		return errors.Wrap(err, "failed to resolve cgroup root")
	}
	s.CgroupRoot = mnt
	return nil
}

func (s Settings) RulesDir() string   { return s.RulesDirectory }
func (s Settings) DaemonName() string { return s.Name }

// Options returns the rule manager options matching the settings.
func (s Settings) Options() []rules.Option {
	return []rules.Option{
		rules.WithCgroupRoot(s.CgroupRoot),
		rules.WithSuffix(s.RuleSuffix),
	}
}
