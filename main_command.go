package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"procmond/rules"
)

// load the rules and provision their cgroups
var loadCommand = cli.Command{
	Name:  "load",
	Usage: "load the rules and provision the cgroups of limiting rules",
	Action: func(context *cli.Context) error {
		l, err := lockInstance()
		if err != nil {
			return err
		}
		defer l.Unlock()

		report := newManager().LoadRules()
		if report.Unprovisioned() > 0 {
			log.Warnf("%d rules are registered without enforced limits", report.Unprovisioned())
		}
		return nil
	},
}

// validate the rule files without touching the cgroup tree
var checkCommand = cli.Command{
	Name:  "check",
	Usage: "validate the rule files without provisioning cgroups",
	Action: func(context *cli.Context) error {
		m := newManager(rules.WithoutProvisioning())
		report := m.LoadRules()

		w := tabwriter.NewWriter(os.Stdout, 12, 1, 3, ' ', 0)
		fmt.Fprint(w, "FILE\tSTATE\tCOMMAND\tERROR\n")
		for _, f := range report.Files {
			var command, reason string
			if f.Rule != nil {
				command = f.Rule.Command
			}
			if f.Err != nil {
				reason = f.Err.Error()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Path, f.State, command, reason)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println()
		if err := printLookupOrder(os.Stdout, m.Store()); err != nil {
			return err
		}

		if bad := report.Rejected() + report.Failed(); bad > 0 {
			return cli.NewExitError(fmt.Sprintf("%d of %d rule files are broken", bad, len(report.Files)), 1)
		}
		return nil
	},
}

// print the rule matching a command line
var findCommand = cli.Command{
	Name:      "find",
	Usage:     "print the rule matching a process command line",
	ArgsUsage: "<command line>",
	Action: func(context *cli.Context) error {
		if len(context.Args()) < 1 {
			return fmt.Errorf("missing command line")
		}
		cmdline := strings.Join(context.Args(), " ")

		m := newManager(rules.WithoutProvisioning())
		m.LoadRules()

		rule, ok := m.FindRuleForCommand(cmdline)
		if !ok {
			return cli.NewExitError(fmt.Sprintf("no rule matches %q", cmdline), 1)
		}
		printRule(rule)
		return nil
	},
}

// move a process into the cgroup of its rule
var attachCommand = cli.Command{
	Name:      "attach",
	Usage:     "move a process into the cgroup of the rule matching its command line",
	ArgsUsage: "<command line> <pid>",
	Action: func(context *cli.Context) error {
		if len(context.Args()) < 2 {
			return fmt.Errorf("missing command line or pid")
		}
		cmdline := context.Args().Get(0)
		pid, err := strconv.Atoi(context.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid pid %q", context.Args().Get(1))
		}

		l, err := lockInstance()
		if err != nil {
			return err
		}
		defer l.Unlock()

		m := newManager()
		m.LoadRules()

		rule, err := m.Attach(cmdline, pid)
		if err != nil {
			return err
		}
		log.Infof("pid %d attached to cgroup %s", pid, rule.CgroupRootDir)
		return nil
	},
}

// printLookupOrder lists the registered rules in the order command lines are
// matched against them.
func printLookupOrder(out io.Writer, store *rules.Store) error {
	w := tabwriter.NewWriter(out, 12, 1, 3, ' ', 0)
	fmt.Fprint(w, "ORDER\tRULE\tCOMMAND\tLIMITING\tCGROUP\n")
	for i, rule := range store.Rules() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", i+1, rule.Name, rule.Command, rule.EnableLimiting, rule.CgroupRootDir)
	}
	return w.Flush()
}

func printRule(rule *rules.Rule) {
	w := tabwriter.NewWriter(os.Stdout, 12, 1, 3, ' ', 0)
	fmt.Fprintf(w, "RULE\t%s\n", rule.Name)
	fmt.Fprintf(w, "COMMAND\t%s\n", rule.Command)
	fmt.Fprintf(w, "CPU TRIGGER\t%g\n", rule.CPUTriggerThreshold)
	fmt.Fprintf(w, "MEM TRIGGER\t%g\n", rule.MemTriggerThreshold)
	fmt.Fprintf(w, "LIMITING\t%t\n", rule.EnableLimiting)
	fmt.Fprintf(w, "CGROUP\t%s\n", rule.CgroupRootDir)
	if err := w.Flush(); err != nil {
		log.Errorf("flush error %v", err)
	}
}
