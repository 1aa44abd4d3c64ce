package canvasfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8765"

// Mux returns the routes served by the feed: the WebSocket at /ws and a
// liveness probe at /healthz.
func Mux(a Assistant, opts ...Option) *http.ServeMux {
	return newMux(NewHandler(a, opts...))
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Serve listens on addr and serves the feed until ctx is done. Open
// WebSocket clients are disconnected before it returns.
func Serve(ctx context.Context, addr string, a Assistant, opts ...Option) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("canvasfeed: listen: %w", err)
	}
	return serve(ctx, ln, NewHandler(a, opts...))
}

func serve(ctx context.Context, ln net.Listener, h *Handler) error {
	srv := &http.Server{
		Handler:           newMux(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("canvasfeed: listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		h.Close()
		return fmt.Errorf("canvasfeed: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("canvasfeed: shutdown", "error", err)
	}
	h.Close()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("canvasfeed: serve: %w", err)
	}
	return nil
}
