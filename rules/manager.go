package rules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"procmond/cgroups"
	"procmond/cgroups/subsystems"
)

// DefaultSuffix marks rule files in the rules directory.
const DefaultSuffix = ".conf"

// Settings provides the daemon identity and where its rules live.
type Settings interface {
	RulesDir() string
	DaemonName() string
}

// State is where a rule file ended up in the loading pipeline.
type State string

const (
	StateDiscovered  State = "discovered"
	StateRead        State = "read"
	StateValidated   State = "validated"
	StateBuilt       State = "built"
	StateProvisioned State = "provisioned"
	StateRejected    State = "rejected"
	StateFailed      State = "failed"
)

// FileResult is the outcome of loading one rule file. Rule is set whenever the
// rule got registered, even if provisioning its cgroup failed afterwards.
type FileResult struct {
	Path  string
	State State
	Rule  *Rule
	Err   error
}

// LoadReport summarizes a discovery run.
type LoadReport struct {
	RunID string
	Files []FileResult
}

// Loaded counts the rules registered by the run.
func (r *LoadReport) Loaded() int {
	return r.count(func(f FileResult) bool { return f.Rule != nil })
}

// Rejected counts files refused for their content.
func (r *LoadReport) Rejected() int {
	return r.count(func(f FileResult) bool { return f.State == StateRejected })
}

// Failed counts files that could not be read or whose cgroup could not be
// provisioned.
func (r *LoadReport) Failed() int {
	return r.count(func(f FileResult) bool { return f.State == StateFailed })
}

// Unprovisioned counts rules that are registered but whose limits are not
// enforced because provisioning failed.
func (r *LoadReport) Unprovisioned() int {
	return r.count(func(f FileResult) bool { return f.State == StateFailed && f.Rule != nil })
}

func (r *LoadReport) count(fn func(FileResult) bool) int {
	var n int
	for _, f := range r.Files {
		if fn(f) {
			n++
		}
	}
	return n
}

// Option configures a Manager.
type Option func(*Manager)

// WithCgroupRoot sets the directory the rule cgroups are created in.
func WithCgroupRoot(root string) Option {
	return func(m *Manager) { m.builder.CgroupRoot = root }
}

// WithLogger sets the logger of the manager.
func WithLogger(entry *log.Entry) Option {
	return func(m *Manager) { m.log = entry }
}

// WithSuffix sets the name fragment identifying rule files.
func WithSuffix(suffix string) Option {
	return func(m *Manager) { m.suffix = suffix }
}

// WithoutProvisioning loads rules without touching the cgroup tree.
func WithoutProvisioning() Option {
	return func(m *Manager) { m.provision = false }
}

// Manager discovers rule files and owns the Store of the resulting Rules.
type Manager struct {
	rulesDir  string
	suffix    string
	provision bool

	builder Builder
	store   *Store
	log     *log.Entry
}

// NewManager creates a manager for the rules directory of settings. No rule is
// loaded until LoadRules is called.
func NewManager(settings Settings, opts ...Option) *Manager {
	m := &Manager{
		rulesDir:  settings.RulesDir(),
		suffix:    DefaultSuffix,
		provision: true,
		builder: Builder{
			DaemonName: settings.DaemonName(),
			CgroupRoot: cgroups.DefaultRoot,
		},
		store: NewStore(),
		log:   log.WithField("component", "rules"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Store returns the rule store owned by the manager.
func (m *Manager) Store() *Store { return m.store }

// LoadRules runs discovery once: every file of the rules directory whose name
// contains the rule suffix is read, validated, built, registered and, if it
// enables limiting, provisioned. Failures only skip the file concerned; an
// unreadable rules directory leaves the store as it is.
func (m *Manager) LoadRules() *LoadReport {
	report := &LoadReport{RunID: uuid.New().String()}
	logger := m.log.WithField("run", report.RunID)

	logger.Infof("loading available rules from %s", m.rulesDir)

	entries, err := os.ReadDir(m.rulesDir)
	if err != nil {
		logger.Errorf("read rules directory %s error %v", m.rulesDir, err)
		return report
	}

	if m.provision {
		m.checkCgroupRoot(logger)
	}

	for _, entry := range entries {
		if !strings.Contains(entry.Name(), m.suffix) {
			continue
		}
		if entry.IsDir() {
			logger.Debugf("skipping directory %s", entry.Name())
			continue
		}
		path := filepath.Join(m.rulesDir, entry.Name())
		report.Files = append(report.Files, m.loadFile(path, logger.WithField("file", path)))
	}

	logger.Infof("loaded %d rules: %d rejected, %d failed, %d without enforced limits",
		report.Loaded(), report.Rejected(), report.Failed(), report.Unprovisioned())

	return report
}

func (m *Manager) loadFile(path string, logger *log.Entry) FileResult {
	result := FileResult{Path: path, State: StateDiscovered}
	logger.Infof("loading file %s", path)

	raw, err := ReadFile(path)
	if err != nil {
		logger.Errorf("unable to read rule file: %v", err)
		result.State, result.Err = StateFailed, err
		return result
	}
	result.State = StateRead

	logger.Debug("validating rule")
	if err := Validate(raw); err != nil {
		logger.Errorf("broken or incomplete rule, skipping: %v", err)
		logger.Debug("make sure all mandatory settings are present and correct datatypes are used")
		result.State, result.Err = StateRejected, err
		return result
	}
	result.State = StateValidated

	logger.Debug("registering rule")
	rule, err := m.builder.Register(raw, m.store)
	if err != nil {
		logger.Errorf("unable to register rule, error parsing rule settings: %v", err)
		result.State, result.Err = StateRejected, err
		return result
	}
	result.State, result.Rule = StateBuilt, rule

	if m.provision && rule.EnableLimiting {
		logger.Debugf("registering cgroup %s", rule.CgroupRootDir)
		if err := Provision(rule, logger); err != nil {
			// The rule stays registered for monitoring and alerting.
			logger.Errorf("unable to provision cgroup %s, limits are not enforced: %v", rule.CgroupRootDir, err)
			result.State, result.Err = StateFailed, err
			return result
		}
		if rule.HasLimits() {
			result.State = StateProvisioned
		}
	}

	logger.Infof("rule %s registered for command %q", rule.Name, rule.Command)
	return result
}

// checkCgroupRoot warns when rules would be provisioned outside of a cgroup2
// hierarchy. It never stops the run.
func (m *Manager) checkCgroupRoot(logger *log.Entry) {
	ok, err := subsystems.IsCgroup2(m.builder.CgroupRoot)
	if err != nil {
		logger.Warnf("unable to inspect cgroup root: %v", err)
		return
	}
	if !ok {
		logger.Warnf("cgroup root %s is not a cgroup2 mount", m.builder.CgroupRoot)
	}
}

// FindRuleForCommand returns the rule whose command is a substring of the
// observed command line. See Store.Find for how ties are broken.
func (m *Manager) FindRuleForCommand(cmdline string) (*Rule, bool) {
	return m.store.Find(cmdline)
}

// ErrNoRule is returned by Attach when no rule matches a command line.
var ErrNoRule = errors.New("no rule matches command")

// ErrNotLimited is returned by Attach for rules without limiting.
var ErrNotLimited = errors.New("rule does not enable limiting")

// Attach moves the process pid into the cgroup of the rule matching cmdline.
func (m *Manager) Attach(cmdline string, pid int) (*Rule, error) {
	rule, ok := m.FindRuleForCommand(cmdline)
	if !ok {
		return nil, errors.Wrapf(ErrNoRule, "%q", cmdline)
	}
	if !rule.EnableLimiting || !rule.HasLimits() {
		return rule, errors.Wrapf(ErrNotLimited, "rule %s", rule.Name)
	}

	c := cgroups.NewCgroupManagerWithFiles(rule.CgroupRootDir, rule.Files)
	c.Log = m.log.WithField("cgroup", rule.CgroupRootDir)
	if err := c.Apply(pid); err != nil {
		return rule, err
	}
	return rule, nil
}
