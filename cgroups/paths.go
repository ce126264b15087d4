package cgroups

// Name returns the cgroup directory name of a rule: <daemon>-<rule>.
func Name(daemonName, ruleName string) string {
	return daemonName + "-" + ruleName
}
