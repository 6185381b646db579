package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/launcher"
	"github.com/Smithed-MC/UX/pkg/registry"
)

// maxParamsBody bounds a command request body.
const maxParamsBody = 1 << 20

// eventBuffer is the per-connection event queue; a slower host misses events.
const eventBuffer = 256

// Params is the union of every command's parameters.
type Params struct {
	BundleID string                  `json:"bundle_id"`
	Offline  bool                    `json:"offline"`
	Bundle   *bundles.Definition     `json:"bundle"`
	Pack     *registry.PackReference `json:"pack"`
	PackID   string                  `json:"pack_id"`
	RemoteID string                  `json:"remote_id"`
	Name     string                  `json:"name"`
}

type handlerFunc func(ctx context.Context, p Params) (any, error)

// Server serves the command surface over HTTP.
type Server struct {
	cmds     *Commands
	events   *launcher.EventBus
	log      *slog.Logger
	handlers map[string]handlerFunc

	// OriginPatterns lists extra websocket origins to accept, such as the
	// GUI host's custom scheme.
	OriginPatterns []string
}

// NewServer creates a Server. A nil logger falls back to slog.Default().
func NewServer(cmds *Commands, events *launcher.EventBus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{cmds: cmds, events: events, log: log}
	s.handlers = map[string]handlerFunc{
		"launch": func(_ context.Context, p Params) (any, error) {
			return nil, cmds.Launch(p.BundleID, p.Offline)
		},
		"stop": func(context.Context, Params) (any, error) {
			return nil, cmds.Stop()
		},
		"status": func(context.Context, Params) (any, error) {
			return cmds.Status(), nil
		},
		"add_bundle": func(_ context.Context, p Params) (any, error) {
			if p.Bundle == nil {
				return nil, fmt.Errorf("commands: %w: bundle is required", ErrInvalidParams)
			}
			return nil, cmds.AddBundle(p.BundleID, *p.Bundle)
		},
		"get_bundle": func(_ context.Context, p Params) (any, error) {
			return cmds.GetBundle(p.BundleID)
		},
		"list_bundles": func(context.Context, Params) (any, error) {
			return cmds.ListBundles()
		},
		"bundle_exists": func(_ context.Context, p Params) (any, error) {
			return cmds.BundleExists(p.BundleID)
		},
		"remove_bundle": func(_ context.Context, p Params) (any, error) {
			return nil, cmds.RemoveBundle(p.BundleID)
		},
		"add_pack_to_bundle": func(_ context.Context, p Params) (any, error) {
			if p.Pack == nil {
				return nil, fmt.Errorf("commands: %w: pack is required", ErrInvalidParams)
			}
			return nil, cmds.AddPackToBundle(p.BundleID, *p.Pack)
		},
		"remove_pack_from_bundle": func(_ context.Context, p Params) (any, error) {
			return nil, cmds.RemovePackFromBundle(p.BundleID, p.PackID)
		},
		"get_pack_version_for_bundle": func(ctx context.Context, p Params) (any, error) {
			return cmds.GetPackVersionForBundle(ctx, p.BundleID, p.PackID)
		},
		"get_bundle_packs": func(ctx context.Context, p Params) (any, error) {
			return cmds.GetBundlePacks(ctx, p.BundleID)
		},
		"get_remote_bundle": func(ctx context.Context, p Params) (any, error) {
			return cmds.GetRemoteBundle(ctx, p.RemoteID)
		},
		"import_bundle": func(ctx context.Context, p Params) (any, error) {
			return cmds.ImportBundle(ctx, p.RemoteID, p.Name)
		},
	}

	return s
}

// Handler returns the HTTP handler: POST /commands/{name} and GET /events.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /commands/{name}", s.handleCommand)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

type response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	h, ok := s.handlers[name]
	if !ok {
		s.writeResponse(w, http.StatusNotFound, response{Error: Describe(fmt.Errorf("commands: %w: %q", ErrUnknownCommand, name))})
		return
	}

	var p Params
	body, err := io.ReadAll(io.LimitReader(r.Body, maxParamsBody))
	if err == nil && len(body) > 0 {
		err = json.Unmarshal(body, &p)
	}
	if err != nil {
		s.writeResponse(w, http.StatusBadRequest, response{Error: Describe(fmt.Errorf("commands: %w: %w", ErrInvalidParams, err))})
		return
	}

	result, err := h(r.Context(), p)
	if err != nil {
		s.log.Warn("command failed", "command", name, "error", err)
		s.writeResponse(w, statusFor(err), response{Error: Describe(err)})
		return
	}

	s.writeResponse(w, http.StatusOK, response{Result: result})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, bundles.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, launcher.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, registry.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Debug("write response", "error", err)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.OriginPatterns})
	if err != nil {
		s.log.Debug("websocket accept", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// The host never sends anything; CloseRead notices when it goes away.
	ctx := conn.CloseRead(r.Context())

	sub := s.events.Subscribe(eventBuffer)
	defer s.events.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, e); err != nil {
				s.log.Debug("websocket write", "error", err)
				return
			}
		}
	}
}

// WatchBundles publishes bundles_changed whenever the store file changes,
// until ctx is done.
func (s *Server) WatchBundles(ctx context.Context, store *bundles.Store) error {
	return store.Watch(ctx, s.log, func() {
		s.events.Publish(launcher.Event{Kind: launcher.EventBundlesChanged})
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("commands: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.log.Info("serving commands", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("commands: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("commands: shutdown: %w", err)
	}
	return nil
}
