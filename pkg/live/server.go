package live

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	klerrors "github.com/vango-dev/keyedlist/internal/errors"
	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/keyed"
	"github.com/vango-dev/keyedlist/pkg/protocol"
	"github.com/vango-dev/keyedlist/pkg/render"
)

// Config configures the live server.
type Config struct {
	// Title is the page title (default: "keyedlist").
	Title string

	// Logger is the logger to use. Default: slog.Default().
	Logger *slog.Logger

	// Metrics is served at MetricsPath when non-nil.
	Metrics http.Handler

	// MetricsPath defaults to "/metrics".
	MetricsPath string

	// WriteTimeout bounds every WebSocket write (default: 10s).
	WriteTimeout time.Duration

	// SendBuffer is the number of frames queued per client before the
	// client is dropped (default: 64).
	SendBuffer int

	// CheckOrigin is passed to the WebSocket upgrader.
	CheckOrigin func(r *http.Request) bool
}

func (c *Config) setDefaults() {
	if c.Title == "" {
		c.Title = "keyedlist"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = 64
	}
}

// Server mirrors one dom root to connected browsers.
type Server struct {
	config   Config
	root     *dom.Node
	rec      *Recorder
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router

	// mu serializes tree changes, snapshots and broadcasts.
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates a server for root and starts observing it.
func NewServer(root *dom.Node, config Config) *Server {
	config.setDefaults()
	s := &Server{
		config:  config,
		root:    root,
		rec:     NewRecorder(),
		logger:  config.Logger.With("component", "live"),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	root.Observe(s.rec)

	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWebSocket)
	if config.Metrics != nil {
		r.Handle(config.MetricsPath, config.Metrics)
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Recorder returns the server's mutation recorder.
func (s *Server) Recorder() *Recorder {
	return s.rec
}

// StartCycle implements keyed.Observer. The tree is locked for the whole
// cycle and the resulting patches are broadcast when it ends.
func (s *Server) StartCycle(string) func(keyed.Stats, error) {
	s.mu.Lock()
	return func(keyed.Stats, error) {
		s.flushLocked()
		s.mu.Unlock()
	}
}

// Mutate runs fn with the tree locked and broadcasts what it changed.
// Do not call it while a reconciler reporting to s may run a cycle.
func (s *Server) Mutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.flushLocked()
}

// Snapshot returns the current tree.
func (s *Server) Snapshot() *protocol.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) snapshotLocked() *protocol.Snapshot {
	s.flushLocked()
	return &protocol.Snapshot{
		Seq:  s.rec.Seq(),
		HTML: render.String(s.root),
		IDs:  PreorderIDs(s.root),
	}
}

func (s *Server) flushLocked() {
	pf, ok := s.rec.Flush()
	if !ok {
		return
	}
	data := protocol.EncodePatches(pf)
	for c := range s.clients {
		if !c.enqueue(data) {
			s.logger.Warn("client too slow, dropping",
				"error", klerrors.New("E031").WithDetail("send buffer full"),
				"remote", c.remote)
			s.dropLocked(c)
		}
	}
	s.logger.Debug("patches broadcast", "seq", pf.Seq, "patches", len(pf.Patches), "clients", len(s.clients))
}

func (s *Server) dropLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	c.close()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(c)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Warn("websocket upgrade failed", "error", klerrors.FromError(err, "E030"))
		return
	}

	c := newClient(conn, r.RemoteAddr, s.config.SendBuffer)
	s.mu.Lock()
	c.enqueue(protocol.EncodeSnapshot(s.snapshotLocked()))
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", c.remote, "clients", n)

	go func() {
		if err := c.writeLoop(s.config.WriteTimeout); err != nil {
			s.logger.Warn("websocket write failed", "error", klerrors.FromError(err, "E031"), "remote", c.remote)
		}
		s.drop(c)
	}()
	c.readLoop()
	s.drop(c)
	s.logger.Info("client disconnected", "remote", c.remote)
}

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Title string }{s.config.Title}); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.dropLocked(c)
	}
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type client struct {
	conn   *websocket.Conn
	remote string
	out    chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(conn *websocket.Conn, remote string, buffer int) *client {
	return &client{
		conn:   conn,
		remote: remote,
		out:    make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues a frame without blocking. It reports false when the
// client's buffer is full.
func (c *client) enqueue(data []byte) bool {
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) writeLoop(timeout time.Duration) error {
	for {
		select {
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				select {
				case <-c.done:
					return nil
				default:
					return err
				}
			}
		case <-c.done:
			return nil
		}
	}
}

// readLoop discards client messages until the connection fails.
func (c *client) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
