package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"figmatext/internal/api"
)

const shutdownTimeout = 30 * time.Second

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.NewHandler(a.sync, a.texts, a.store, a.figmaConfigured))
}

// Serve runs the HTTP API and the sync triggers until ctx is cancelled, then
// shuts down gracefully and waits for in-flight syncs.
func (a *App) Serve(ctx context.Context) error {
	if err := a.sync.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.sync.Stop()
		return err
	case <-ctx.Done():
	}

	log.Println("[HTTP] Shutting down...")
	a.sync.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if running := a.sync.Running(); len(running) > 0 {
		log.Printf("[HTTP] Waiting for %d running sync(s): %v", len(running), running)
	}
	a.sync.WaitRunning(shutdownCtx)
	return err
}
