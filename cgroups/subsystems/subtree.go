package subsystems

// Controllers enabled for the rule's cgroup.
const subtreeControllers = "+pids +cpu +cpuset +memory"

type SubtreeSubSystem struct {
}

func (s *SubtreeSubSystem) Set(files *ControlFiles, res *ResourceConfig) error {
	return writeControl(files.SubtreeControl, subtreeControllers)
}

func (s *SubtreeSubSystem) Name() string {
	return "subtree"
}
