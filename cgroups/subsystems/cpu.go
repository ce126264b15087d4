package subsystems

import "fmt"

// CpuPeriod is the cpu.max period in microseconds.
const CpuPeriod = 100000

type CpuSubSystem struct {
}

// Set writes "<quota> <period>" into cpu.max. A percentage of p grants p*1000
// microseconds of every 100ms period.
func (s *CpuSubSystem) Set(files *ControlFiles, res *ResourceConfig) error {
	return writeControl(files.CpuMax, CpuMax(res.CpuPercent))
}

func (s *CpuSubSystem) Name() string {
	return "cpu"
}

// CpuMax returns the cpu.max content for a percentage of one CPU.
func CpuMax(percent int) string {
	if percent > 0 {
		return fmt.Sprintf("%d %d", percent*1000, CpuPeriod)
	}
	return fmt.Sprintf("max %d", CpuPeriod)
}
