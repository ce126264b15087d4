// Package rules loads the rule files of procmond, validates and parses them
// into Rules, and provisions the cgroup each limiting rule asks for.
//
// A rule file is a plain KEY=VALUE text file:
//
//	RULE_NAME=high_cpu
//	COMMAND=worker
//	CPU_TRIGGER_THRESHOLD=80.0
//	MEM_TRIGGER_THRESHOLD=50.0
//	LIMIT_CPU_PERCENT=50
//	ENABLE_LIMITING=1
//
// Every file found in the rules directory goes through the pipeline
// read -> validate -> build -> provision. A file failing any step is logged and
// skipped; nothing in this package aborts a discovery run.
package rules

import "procmond/cgroups/subsystems"

// Unset marks an optional integer setting absent from the rule file.
const Unset = -1

// Recognized rule file keys.
const (
	KeyRuleName            = "RULE_NAME"
	KeyCommand             = "COMMAND"
	KeyCPUTriggerThreshold = "CPU_TRIGGER_THRESHOLD"
	KeyMemTriggerThreshold = "MEM_TRIGGER_THRESHOLD"
	KeyChecksBeforeAlert   = "CHECKS_BEFORE_ALERT"
	KeyLimitCPUPercent     = "LIMIT_CPU_PERCENT"
	KeyLimitMemoryValue    = "LIMIT_MEMORY_VALUE"
	KeyNoCheck             = "NO_CHECK"
	KeyFreeze              = "FREEZE"
	KeyOOMKillEnabled      = "OOM_KILL_ENABLED"
	KeyPIDKillEnabled      = "PID_KILL_ENABLED"
	KeySendProcessFiles    = "SEND_PROCESS_FILES"
	KeyEnableLimiting      = "ENABLE_LIMITING"
)

var (
	mandatoryKeys = []string{
		KeyRuleName,
		KeyCommand,
		KeyCPUTriggerThreshold,
		KeyMemTriggerThreshold,
	}
	booleanKeys = []string{
		KeyNoCheck,
		KeyFreeze,
		KeyOOMKillEnabled,
		KeyPIDKillEnabled,
		KeySendProcessFiles,
		KeyEnableLimiting,
	}
	floatKeys = []string{
		KeyCPUTriggerThreshold,
		KeyMemTriggerThreshold,
	}
	integerKeys = []string{
		KeyChecksBeforeAlert,
		KeyLimitCPUPercent,
		KeyLimitMemoryValue,
	}
)

var recognizedKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, set := range [][]string{mandatoryKeys, booleanKeys, floatKeys, integerKeys} {
		for _, k := range set {
			keys[k] = struct{}{}
		}
	}
	return keys
}()

// IsRecognized reports whether key is a rule file setting.
func IsRecognized(key string) bool {
	_, ok := recognizedKeys[key]
	return ok
}

// RawFields maps recognized keys to their literal values as read from one rule
// file. It only lives until the Rule is built.
type RawFields map[string]string

// Rule describes one watched command. Rules are built once per rule file and
// never modified afterwards; a new discovery run replaces them.
type Rule struct {
	Name    string
	Command string // substring matched against observed command lines

	// used by the monitoring loop only
	CPUTriggerThreshold float64
	MemTriggerThreshold float64

	ChecksBeforeAlert int // Unset if absent
	SendProcessFiles  bool
	NoCheck           bool

	EnableLimiting   bool
	LimitCPUPercent  int   // 0-100, Unset if absent
	LimitMemoryValue int64 // bytes, Unset if absent
	Freeze           bool
	OOMKillEnabled   bool
	PIDKillEnabled   bool

	CgroupName    string // <daemon>-<rule>
	CgroupRootDir string // <cgroup root>/<cgroup name>
	Files         subsystems.ControlFiles
}

// HasLimits reports whether at least one limiting dimension is configured.
func (r *Rule) HasLimits() bool {
	return r.LimitCPUPercent >= 0 ||
		r.LimitMemoryValue >= 0 ||
		r.Freeze ||
		r.OOMKillEnabled ||
		r.PIDKillEnabled
}

// Resources returns the cgroup limits of the rule.
func (r *Rule) Resources() *subsystems.ResourceConfig {
	return &subsystems.ResourceConfig{
		CpuPercent:  r.LimitCPUPercent,
		MemoryLimit: r.LimitMemoryValue,
		Freeze:      r.Freeze,
		OomKill:     r.OOMKillEnabled,
	}
}
