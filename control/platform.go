// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Process-level debug probes.

package control

import (
	"os"
	"runtime"
)

// RegisterPlatformProbes sets process and platform debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS + "/" + runtime.GOARCH
	})
	dp.RegisterProbe("process.pid", func() any {
		return os.Getpid()
	})
	dp.RegisterProbe("process.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
