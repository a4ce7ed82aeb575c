// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// CPU pinning for the event loop thread. Platform code lives in
// affinity_linux.go and affinity_stub.go.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-relay/api"
)

// Unpinned leaves scheduling to the OS.
const Unpinned = -1

// Pin locks the calling goroutine to its OS thread and binds that thread to
// cpuID. The returned release func unlocks the thread; it does not restore
// the previous CPU mask. Pin(Unpinned) is a no-op.
func Pin(cpuID int) (release func(), err error) {
	if cpuID == Unpinned {
		return func() {}, nil
	}
	if cpuID < 0 {
		return nil, fmt.Errorf("cpu %d: %w", cpuID, api.ErrInvalidArgument)
	}
	runtime.LockOSThread()
	if err := setAffinityPlatform(cpuID); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return runtime.UnlockOSThread, nil
}
