package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"procmond/config"
)

const usage = "procmond loads process rules and provisions their cgroups"

// settings is filled in by app.Before for every command.
var settings config.Settings

func main() {
	app := cli.NewApp()
	app.Name = "procmond"
	app.Version = "0.4"
	app.Usage = usage

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: config.DefaultPath,
			Usage: "settings file",
		},
		cli.StringFlag{
			Name:  "rules-dir",
			Usage: "override the rules directory",
		},
		cli.StringFlag{
			Name:  "daemon-name",
			Usage: "override the daemon name used in cgroup names",
		},
		cli.StringFlag{
			Name:  "cgroup-root",
			Usage: "override the cgroup root, \"auto\" to look up the cgroup2 mount",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "override the log level",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "override the log format, json or text",
		},
		cli.DurationFlag{
			Name:  "lock-timeout",
			Usage: "override how long to wait for another instance to release the lock",
		},
	}

	app.Commands = []cli.Command{
		loadCommand,
		checkCommand,
		findCommand,
		attachCommand,
	}

	app.Before = func(context *cli.Context) error {
		s, err := loadSettings(context)
		if err != nil {
			return err
		}
		if err := setupLogging(s); err != nil {
			return err
		}
		settings = s
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
