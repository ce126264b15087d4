package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"procmond/config"
	"procmond/rules"
	"procmond/util"
)

// loadSettings reads the settings file and applies the command line
// overrides on top of it.
func loadSettings(context *cli.Context) (config.Settings, error) {
	s, err := config.Load(context.String("config"))
	if err != nil {
		return config.Settings{}, err
	}

	overrides := []struct {
		flag  string
		value *string
	}{
		{"rules-dir", &s.RulesDirectory},
		{"daemon-name", &s.Name},
		{"cgroup-root", &s.CgroupRoot},
		{"log-level", &s.LogLevel},
		{"log-format", &s.LogFormat},
	}
	for _, o := range overrides {
		if context.IsSet(o.flag) {
			*o.value = context.String(o.flag)
		}
	}
	if context.IsSet("lock-timeout") {
		s.LockTimeout = context.Duration("lock-timeout")
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	if err := s.Resolve(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

func setupLogging(s config.Settings) error {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if s.LogFormat == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}

func newManager(opts ...rules.Option) *rules.Manager {
	opts = append(settings.Options(), opts...)
	return rules.NewManager(settings, opts...)
}

// lockInstance takes the daemon lock so only one procmond writes into the
// cgroup tree at a time. If another instance keeps holding it, the returned
// error makes the command exit with status 2.
func lockInstance() (*flock.Flock, error) {
	return acquireLock(settings.LockFile, settings.LockTimeout)
}

func acquireLock(path string, timeout time.Duration) (*flock.Flock, error) {
	var l *flock.Flock
	var err error

	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		l, err = util.Lock(ctx, path)
	} else {
		l, err = util.TryLock(path)
	}

	if err != nil {
		if errors.Is(err, util.ErrLockedElsewhere) {
			return nil, cli.NewExitError(fmt.Sprintf("procmond is already running, lock %s is held", path), 2)
		}
		return nil, errors.Wrap(err, "failed to acquire instance lock")
	}
	return l, nil
}
