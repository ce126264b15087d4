package subsystems

type FreezerSubSystem struct {
}

// Set pauses every task of the cgroup when res.Freeze is true and thaws them
// otherwise.
func (s *FreezerSubSystem) Set(files *ControlFiles, res *ResourceConfig) error {
	state := "0"
	if res.Freeze {
		state = "1"
	}
	return writeControl(files.Freeze, state)
}

func (s *FreezerSubSystem) Name() string {
	return "freezer"
}
