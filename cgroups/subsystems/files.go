package subsystems

import "path"

// ControlFiles holds the absolute paths of the control files of one cgroup.
// Subsystems write through it and never join paths themselves.
type ControlFiles struct {
	SubtreeControl string
	CpuMax         string
	Procs          string
	MemoryHigh     string
	MemoryMax      string
	Freeze         string
}

// ControlFilesFor derives the control file paths below the cgroup directory
// dir.
func ControlFilesFor(dir string) ControlFiles {
	return ControlFiles{
		SubtreeControl: path.Join(dir, SubtreeControlFile),
		CpuMax:         path.Join(dir, CpuMaxFile),
		Procs:          path.Join(dir, ProcsFile),
		MemoryHigh:     path.Join(dir, MemoryHighFile),
		MemoryMax:      path.Join(dir, MemoryMaxFile),
		Freeze:         path.Join(dir, FreezeFile),
	}
}
