//go:build linux

package reactor_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func newReactor(t *testing.T) reactor.Reactor {
	t.Helper()
	r, err := reactor.New(16)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReactor_ReportsTokenOnReadable(t *testing.T) {
	r := newReactor(t)
	a, b := socketPair(t)

	require.NoError(t, r.Register(a, 3, api.Readable))

	batch := reactor.NewBatch()
	require.NoError(t, r.Poll(batch, 10*time.Millisecond))
	assert.Equal(t, 0, batch.Len(), "nothing written yet")

	_, err := unix.Write(b, []byte("ping"))
	require.NoError(t, err)

	require.NoError(t, r.Poll(batch, time.Second))
	ev, ok := batch.Pop()
	require.True(t, ok)
	assert.Equal(t, api.Token(3), ev.Token)
	assert.True(t, ev.Readiness.Readable())
	_, ok = batch.Pop()
	assert.False(t, ok)
}

func TestReactor_LevelTriggeredRenotifies(t *testing.T) {
	r := newReactor(t)
	a, b := socketPair(t)
	require.NoError(t, r.Register(a, 0, api.Readable))

	_, err := unix.Write(b, []byte("xyz"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		batch := reactor.NewBatch()
		require.NoError(t, r.Poll(batch, time.Second))
		require.Equal(t, 1, batch.Len(), "unread data keeps the token ready")
	}
}

func TestReactor_DeregisterStopsEvents(t *testing.T) {
	r := newReactor(t)
	a, b := socketPair(t)
	require.NoError(t, r.Register(a, 1, api.Readable))
	require.NoError(t, r.Deregister(1))

	_, err := unix.Write(b, []byte("late"))
	require.NoError(t, err)

	batch := reactor.NewBatch()
	require.NoError(t, r.Poll(batch, 20*time.Millisecond))
	assert.Equal(t, 0, batch.Len())

	assert.ErrorIs(t, r.Deregister(1), api.ErrUnknownToken)
}

func TestReactor_RegisterFailuresAreFatal(t *testing.T) {
	r := newReactor(t)
	a, _ := socketPair(t)

	err := r.Register(-1, 0, api.Readable)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrRegistration)
	assert.True(t, api.IsFatal(err))

	require.NoError(t, r.Register(a, 2, api.Readable))
	err = r.Register(a, 2, api.Readable)
	assert.ErrorIs(t, err, api.ErrRegistration)
}

func TestReactor_HangupIsReadable(t *testing.T) {
	r := newReactor(t)
	a, b := socketPair(t)
	require.NoError(t, r.Register(a, 4, api.Readable))
	require.NoError(t, unix.Shutdown(b, unix.SHUT_WR))

	batch := reactor.NewBatch()
	require.NoError(t, r.Poll(batch, time.Second))
	ev, ok := batch.Pop()
	require.True(t, ok)
	assert.True(t, ev.Readiness.Readable())
	assert.NotZero(t, ev.Readiness&api.HangupReady)
}

func TestWaker_WakesBlockedPoll(t *testing.T) {
	r := newReactor(t)
	w, err := reactor.NewWaker()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, r.Register(w.Fd(), 99, api.Readable))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = w.Wake()
	}()

	batch := reactor.NewBatch()
	require.NoError(t, r.Poll(batch, reactor.NoTimeout))
	ev, ok := batch.Pop()
	require.True(t, ok)
	assert.Equal(t, api.Token(99), ev.Token)

	require.NoError(t, w.Drain())
	assert.ErrorIs(t, w.Drain(), api.ErrWouldBlock)
}

func TestWaker_CloseIsIdempotent(t *testing.T) {
	w, err := reactor.NewWaker()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, -1, w.Fd())
	assert.ErrorIs(t, w.Wake(), unix.EBADF)
	assert.ErrorIs(t, w.Drain(), unix.EBADF)
}

func TestBatch_FIFO(t *testing.T) {
	b := reactor.NewBatch()
	for i := 0; i < 5; i++ {
		b.Push(api.Event{Token: api.Token(i), Readiness: api.ReadReady})
	}
	assert.Equal(t, 5, b.Len())
	for i := 0; i < 3; i++ {
		ev, ok := b.Pop()
		require.True(t, ok)
		assert.Equal(t, api.Token(i), ev.Token)
	}
	b.Reset()
	assert.Equal(t, 0, b.Len())
	_, ok := b.Pop()
	assert.False(t, ok)
}

func TestReadiness_String(t *testing.T) {
	assert.Equal(t, "none", api.Readiness(0).String())
	assert.Equal(t, "read|hup", (api.ReadReady | api.HangupReady).String())
}
