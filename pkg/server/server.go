// Package server exposes upload, header lookup and conversion over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpfielding/dcmview/pkg/config"
	"github.com/jpfielding/dcmview/pkg/convert"
	"github.com/jpfielding/dcmview/pkg/storage"
	"github.com/zenazn/goji/web"
)

// Server routes requests to the store and the converter.
type Server struct {
	cfg   config.Server
	store *storage.Store
	conv  convert.Options
	mux   *web.Mux
}

// New builds the mux for cfg; store is owned by the caller.
func New(cfg *config.Config, store *storage.Store) (*Server, error) {
	conv, err := convert.OptionsFrom(cfg.Convert)
	if err != nil {
		return nil, err
	}
	if _, err := convert.New(conv); err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg.Server, store: store, conv: conv, mux: web.New()}

	s.mux.Use(requestID)
	s.mux.Use(recoverer)
	if len(cfg.Server.CORSOrigins) > 0 {
		s.mux.Use(corsHandler(cfg.Server.CORSOrigins))
	}
	if cfg.Server.Gzip {
		s.mux.Use(gzipHandler)
	}

	s.mux.Get("/healthz", s.healthz)
	s.mux.Post("/upload", s.upload)
	s.mux.Get("/header/:filename", s.header)
	s.mux.Get("/convert/:filename", s.convert)
	s.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusNotFound, "Not found", nil)
	})
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Address,
		Handler:     s,
		ReadTimeout: time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "listening", slog.String("address", s.cfg.Address))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// fail logs and writes a plain text error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, msg string, err error) {
	attrs := []any{slog.Int("status", code), slog.String("path", r.URL.Path)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), msg, attrs...)
	} else {
		slog.DebugContext(r.Context(), msg, attrs...)
	}
	http.Error(w, msg, code)
}
