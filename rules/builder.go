package rules

import (
	"fmt"
	"path"
	"strconv"

	"github.com/pkg/errors"

	"procmond/cgroups"
	"procmond/cgroups/subsystems"
)

// Kinds of build failures, matched with errors.Is.
var (
	ErrMissing    = errors.New("missing mandatory setting")
	ErrParse      = errors.New("unparsable value")
	ErrOutOfRange = errors.New("value out of range")
)

// BuildError reports the setting a Rule could not be built from.
type BuildError struct {
	Key   string
	Value string
	Kind  error // ErrMissing, ErrParse or ErrOutOfRange
	Err   error // underlying parse error, if any
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s=%q: %v", e.Key, e.Value, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Kind }

// Builder turns validated raw fields into Rules bound to one daemon's cgroup
// tree.
type Builder struct {
	DaemonName string
	CgroupRoot string
}

// Build parses raw into a Rule and derives its cgroup paths. It has no side
// effects; the Rule is only returned once every field parsed and is in range.
func (b *Builder) Build(raw RawFields) (*Rule, error) {
	rule := &Rule{
		Name:              raw[KeyRuleName],
		Command:           raw[KeyCommand],
		ChecksBeforeAlert: Unset,
		LimitCPUPercent:   Unset,
		LimitMemoryValue:  Unset,
	}

	if rule.Name == "" {
		return nil, &BuildError{Key: KeyRuleName, Kind: ErrMissing}
	}
	if rule.Command == "" {
		return nil, &BuildError{Key: KeyCommand, Kind: ErrMissing}
	}

	var err error
	if rule.CPUTriggerThreshold, err = parseFloat(raw, KeyCPUTriggerThreshold); err != nil {
		return nil, err
	}
	if rule.MemTriggerThreshold, err = parseFloat(raw, KeyMemTriggerThreshold); err != nil {
		return nil, err
	}

	if v := raw[KeyChecksBeforeAlert]; v != "" {
		n, err := parseInt(KeyChecksBeforeAlert, v, 0, maxInt)
		if err != nil {
			return nil, err
		}
		rule.ChecksBeforeAlert = int(n)
	}
	if v := raw[KeyLimitCPUPercent]; v != "" {
		n, err := parseInt(KeyLimitCPUPercent, v, 0, 100)
		if err != nil {
			return nil, err
		}
		rule.LimitCPUPercent = int(n)
	}
	if v := raw[KeyLimitMemoryValue]; v != "" {
		n, err := parseInt(KeyLimitMemoryValue, v, 0, maxInt64)
		if err != nil {
			return nil, err
		}
		rule.LimitMemoryValue = n
	}

	rule.NoCheck = raw[KeyNoCheck] == "1"
	rule.Freeze = raw[KeyFreeze] == "1"
	rule.OOMKillEnabled = raw[KeyOOMKillEnabled] == "1"
	rule.PIDKillEnabled = raw[KeyPIDKillEnabled] == "1"
	rule.SendProcessFiles = raw[KeySendProcessFiles] == "1"
	rule.EnableLimiting = raw[KeyEnableLimiting] == "1"

	rule.CgroupName = cgroups.Name(b.DaemonName, rule.Name)
	rule.CgroupRootDir = path.Join(b.CgroupRoot, rule.CgroupName)
	rule.Files = subsystems.ControlFilesFor(rule.CgroupRootDir)

	return rule, nil
}

// Register builds raw and, only if that succeeds, stores the Rule under its
// command, replacing any earlier Rule for the same command.
func (b *Builder) Register(raw RawFields, store *Store) (*Rule, error) {
	rule, err := b.Build(raw)
	if err != nil {
		return nil, err
	}
	store.Put(rule)
	return rule, nil
}

const (
	maxInt   = int64(^uint(0) >> 1)
	maxInt64 = int64(^uint64(0) >> 1)
)

func parseFloat(raw RawFields, key string) (float64, error) {
	v := raw[key]
	if v == "" {
		return 0, &BuildError{Key: key, Kind: ErrMissing}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &BuildError{Key: key, Value: v, Kind: ErrParse, Err: err}
	}
	return f, nil
}

func parseInt(key, v string, min, max int64) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &BuildError{Key: key, Value: v, Kind: ErrParse, Err: err}
	}
	if n < min || n > max {
		return 0, &BuildError{Key: key, Value: v, Kind: ErrOutOfRange}
	}
	return n, nil
}
