package subsystems

import "strconv"

type MemorySubSystem struct {
}

// Set writes the soft limit into memory.high. With res.OomKill the same value
// becomes the hard limit in memory.max; otherwise memory.max is left untouched.
func (s *MemorySubSystem) Set(files *ControlFiles, res *ResourceConfig) error {
	value := MemoryValue(res.MemoryLimit)
	if err := writeControl(files.MemoryHigh, value); err != nil {
		return err
	}
	if res.OomKill {
		return writeControl(files.MemoryMax, value)
	}
	return nil
}

func (s *MemorySubSystem) Name() string {
	return "memory"
}

// MemoryValue returns the memory.high/memory.max content for a byte limit.
func MemoryValue(limit int64) string {
	if limit > 0 {
		return strconv.FormatInt(limit, 10)
	}
	return "max"
}
