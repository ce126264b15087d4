package subsystems

// Control files of a cgroup v2 directory.
const (
	SubtreeControlFile = "cgroup.subtree_control"
	ProcsFile          = "cgroup.procs"
	FreezeFile         = "cgroup.freeze"
	CpuMaxFile         = "cpu.max"
	MemoryHighFile     = "memory.high"
	MemoryMaxFile      = "memory.max"
)

// ResourceConfig carries the limits a cgroup should enforce.
type ResourceConfig struct {
	CpuPercent  int   // share of one CPU, 0 or less means unlimited
	MemoryLimit int64 // bytes, 0 or less means "max"
	Freeze      bool
	OomKill     bool // also cap memory.max so the kernel OOM killer fires
}

// Subsystem writes the control files of one controller family.
type Subsystem interface {
	// Name returns the controller name, e.g. cpu or memory
	Name() string
	// Set writes the limits of res into the control files of one cgroup
	Set(files *ControlFiles, res *ResourceConfig) error
}

// SubsystemsIns is applied in order; controllers must be enabled in the
// subtree before their files are written.
var (
	SubsystemsIns = []Subsystem{
		&SubtreeSubSystem{},
		&FreezerSubSystem{},
		&CpuSubSystem{},
		&MemorySubSystem{},
	}
)
