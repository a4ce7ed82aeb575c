//go:build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>

package affinity

import "github.com/momentics/hioload-relay/api"

func setAffinityPlatform(cpuID int) error {
	return api.Unsupported("cpu affinity")
}
