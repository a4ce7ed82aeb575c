package control_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/momentics/hioload-relay/control"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Exposition(t *testing.T) {
	m := control.NewMetrics()
	m.Accepted.Inc()
	m.Accepted.Inc()
	m.Rejected.Inc()
	m.Active.Set(2)
	m.BytesRelayed.Add(6)
	m.Fanout.Observe(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Accepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected))

	srv := httptest.NewServer(control.NewMux(m, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "relay_connections_accepted_total 2")
	assert.Contains(t, text, "relay_connections_rejected_total 1")
	assert.Contains(t, text, "relay_connections_active 2")
	assert.Contains(t, text, "relay_bytes_relayed_total 6")
	assert.Contains(t, text, "relay_broadcast_fanout_count 1")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := control.NewMetrics()
	b := control.NewMetrics()
	a.Closed.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Closed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Closed))
}

func TestDebugProbes_DumpAndServe(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	dp.RegisterProbe("relay.active", func() any { return 3 })

	assert.Contains(t, dp.Names(), "platform.cpus")
	assert.Contains(t, dp.Names(), "relay.active")
	assert.Equal(t, 3, dp.DumpState()["relay.active"])

	rec := httptest.NewRecorder()
	dp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/probes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3.0, got["relay.active"])
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- control.Serve(ctx, ln, control.NewMetrics(), control.NewDebugProbes(), nil) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/debug/probes")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeMetrics_DisabledWithoutAddr(t *testing.T) {
	assert.NoError(t, control.ServeMetrics(context.Background(), "", nil, nil, nil))
}
