//go:build linux

package affinity

import (
	"runtime"
	"testing"

	"github.com/momentics/hioload-relay/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPin_BindsCallingThread(t *testing.T) {
	allowed, err := current()
	require.NoError(t, err)
	require.NotEmpty(t, allowed)
	cpu := allowed[len(allowed)-1]

	done := make(chan struct{})
	go func() {
		defer close(done)
		release, err := Pin(cpu)
		if !assert.NoError(t, err) {
			return
		}
		// The thread stays locked after release; let it exit with the goroutine.
		runtime.LockOSThread()
		defer release()

		got, err := current()
		assert.NoError(t, err)
		assert.Equal(t, []int{cpu}, got)
	}()
	<-done
}

func TestPin_Unpinned(t *testing.T) {
	release, err := Pin(Unpinned)
	require.NoError(t, err)
	release()
}

func TestPin_OutOfRange(t *testing.T) {
	_, err := Pin(1 << 20)
	assert.Error(t, err)
	_, err = Pin(-2)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}
