package server_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fretsense/fretsense/internal/detect"
	"github.com/fretsense/fretsense/internal/server"
	"github.com/fretsense/fretsense/internal/session"
	"github.com/fretsense/fretsense/pkg/audio"
	"github.com/fretsense/fretsense/pkg/audio/mock"
)

func sine(freq float64, rate, n int, amp float64) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return s
}

// newTestServer wires a server around a controller fed by a looping A-string
// source and serves it via httptest.
func newTestServer(t *testing.T) (*httptest.Server, *session.Controller) {
	t.Helper()

	src := &mock.FrameSource{
		Frames: []audio.Frame{
			{Samples: sine(110, 44100, 4096, 12000), SampleRate: 44100},
		},
		Loop: true,
	}
	ctrl := session.New(session.Config{Interval: time.Millisecond}, src, nil)

	s := server.New(server.Config{StreamInterval: 5 * time.Millisecond}, ctrl, nil, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		if ctrl.Running() {
			_ = ctrl.Stop()
		}
	})
	return ts, ctrl
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestSnapshotEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/snapshot")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var snap session.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if snap.Running {
		t.Error("snapshot reports running before start")
	}
	if snap.String != "-" {
		t.Errorf("string = %q, want %q", snap.String, "-")
	}
	if snap.RequiredConfirmations != detect.RequiredConfirmations {
		t.Errorf("required confirmations = %d, want %d",
			snap.RequiredConfirmations, detect.RequiredConfirmations)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts, ctrl := newTestServer(t)

	resp := post(t, ts.URL+"/api/v1/session/start")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !ctrl.Running() {
		t.Error("controller not running after start")
	}

	resp = post(t, ts.URL+"/api/v1/session/start")
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double start status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp = post(t, ts.URL+"/api/v1/session/stop")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ctrl.Running() {
		t.Error("controller still running after stop")
	}

	resp = post(t, ts.URL+"/api/v1/session/stop")
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double stop status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestResetEndpoint(t *testing.T) {
	ts, ctrl := newTestServer(t)

	resp := post(t, ts.URL+"/api/v1/session/reset")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	snap := ctrl.Snapshot()
	if snap.String != "-" || snap.Confirmations != 0 {
		t.Errorf("snapshot after reset = %+v, want cleared", snap)
	}
}

func TestLifecycleEndpointsRejectGET(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{
		"/api/v1/session/start",
		"/api/v1/session/stop",
		"/api/v1/session/reset",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestStreamPushesSnapshots(t *testing.T) {
	ts, ctrl := newTestServer(t)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, ts.URL+"/api/v1/stream", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "test done")

	// Read a few messages; each must be a complete snapshot document.
	var sawRunning bool
	for i := 0; i < 3; i++ {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if typ != websocket.MessageText {
			t.Fatalf("message type = %v, want text", typ)
		}

		var snap session.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("unmarshal message %d: %v", i, err)
		}
		if snap.RequiredConfirmations != detect.RequiredConfirmations {
			t.Errorf("required confirmations = %d, want %d",
				snap.RequiredConfirmations, detect.RequiredConfirmations)
		}
		if snap.Running {
			sawRunning = true
		}
	}
	if !sawRunning {
		t.Error("no streamed snapshot reported the running session")
	}
}
