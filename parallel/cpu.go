package parallel

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// DefaultLimit returns a fan-out bound matched to the host CPU: physical
// cores when the probe reports them, logical cores otherwise, with the
// runtime's view as a last resort.
func DefaultLimit() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
