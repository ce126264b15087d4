package rules

import (
	log "github.com/sirupsen/logrus"

	"procmond/cgroups"
)

// Provision realizes the limits of rule in its cgroup: it creates the cgroup
// directory if needed and writes the controller files. Rules without any
// limiting dimension are skipped. A failed write leaves earlier files as they
// are.
func Provision(rule *Rule, logger *log.Entry) error {
	if !rule.HasLimits() {
		logger.Debugf("rule %s has no limits, skipping cgroup", rule.Name)
		return nil
	}

	if logger.Logger.IsLevelEnabled(log.DebugLevel) {
		logger.Debugf("limit_cpu_percent: %d", rule.LimitCPUPercent)
		logger.Debugf("limit_memory_value: %d", rule.LimitMemoryValue)
		logger.Debugf("oom_kill_enabled: %t", rule.OOMKillEnabled)
		logger.Debugf("pid_kill_enabled: %t", rule.PIDKillEnabled)
		logger.Debugf("freeze: %t", rule.Freeze)
	}

	c := cgroups.NewCgroupManagerWithFiles(rule.CgroupRootDir, rule.Files)
	c.Log = logger.WithField("cgroup", rule.CgroupRootDir)

	if _, err := c.Create(); err != nil {
		return err
	}
	return c.Set(rule.Resources())
}
