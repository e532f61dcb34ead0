package live

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/keyedlist/pkg/cell"
	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/keyed"
	"github.com/vango-dev/keyedlist/pkg/protocol"
	"github.com/vango-dev/keyedlist/pkg/telemetry"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := NewServer(dom.NewElement("ul"), Config{
		Title:   "letters",
		Logger:  slog.New(slog.DiscardHandler),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, reg
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("message type = %d", mt)
	}
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	return f
}

func readPatches(t *testing.T, conn *websocket.Conn) *protocol.PatchesFrame {
	t.Helper()
	f := readFrame(t, conn)
	if f.Type != protocol.FramePatches {
		t.Fatalf("frame type = %v, want Patches", f.Type)
	}
	pf, err := protocol.DecodePatches(f.Payload)
	if err != nil {
		t.Fatalf("DecodePatches() error = %v", err)
	}
	return pf
}

func TestIndexPage(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "<title>letters</title>") {
		t.Errorf("body missing title: %s", body)
	}
	if !strings.Contains(string(body), `new WebSocket(`) {
		t.Error("body missing client script")
	}
}

func TestStreamsReconciliation(t *testing.T) {
	srv, ts, reg := newTestServer(t)
	root := srv.root

	conn := dial(t, ts)
	f := readFrame(t, conn)
	if f.Type != protocol.FrameSnapshot {
		t.Fatalf("first frame = %v, want Snapshot", f.Type)
	}
	snap, err := protocol.DecodeSnapshot(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if snap.HTML != "<ul></ul>" || len(snap.IDs) != 1 || snap.IDs[0] != root.ID() {
		t.Errorf("snapshot = %+v", snap)
	}
	if srv.Clients() != 1 {
		t.Errorf("Clients() = %d", srv.Clients())
	}

	src := cell.New([]string{"a", "b"})
	r, err := keyed.New[string](src, func(s string, _ *cell.Cell[int], _ keyed.Source[string]) any {
		return li(s)
	},
		keyed.WithName("letters"),
		keyed.WithKeyFunc(func(v any) any { return v }),
		keyed.WithObserver(srv),
		keyed.WithObserver(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
	)
	if err != nil {
		t.Fatal(err)
	}
	srv.Mutate(func() { r.Mount(root) })

	pf := readPatches(t, conn)
	if pf.Seq != 1 || len(pf.Patches) != 4 {
		t.Fatalf("mount frame = %+v", pf)
	}
	for _, p := range pf.Patches {
		if p.Op != protocol.PatchInsert || p.ParentID != root.ID() {
			t.Errorf("mount patch = %v", p)
		}
	}

	src.Set([]string{"b", "a"})
	pf = readPatches(t, conn)
	if pf.Seq != 2 || len(pf.Patches) != 1 || pf.Patches[0].Op != protocol.PatchMove {
		t.Fatalf("reorder frame = %+v", pf)
	}
	if html := srv.Snapshot().HTML; !strings.Contains(html, "<li>b</li><li>a</li>") {
		t.Errorf("snapshot after reorder = %s", html)
	}

	src.Set([]string{"b", "a"})
	src.Set([]string{"a"})
	pf = readPatches(t, conn)
	if pf.Seq != 3 || len(pf.Patches) != 1 || pf.Patches[0].Op != protocol.PatchRemove {
		t.Fatalf("an idempotent cycle should send nothing, then a removal: %+v", pf)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `keyedlist_cycles_total{region="letters",status="ok"} 3`) {
		t.Errorf("metrics missing cycle count:\n%s", body)
	}
}

func TestLateClientGetsCurrentTree(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	srv.Mutate(func() { srv.root.Append(li("x")) })

	conn := dial(t, ts)
	f := readFrame(t, conn)
	snap, err := protocol.DecodeSnapshot(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if snap.HTML != "<ul><li>x</li></ul>" || snap.Seq != 1 || len(snap.IDs) != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestClientDisconnect(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	readFrame(t, conn)
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not dropped after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUpgradeRequired(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
