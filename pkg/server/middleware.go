package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jpfielding/dcmview/pkg/logging"
	"github.com/jpfielding/dcmview/pkg/util"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/zenazn/goji/web"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-Id"

// requestID tags the request context so every log line carries the id.
func requestID(c *web.C, h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = util.RequestID()
		}
		if c.Env == nil {
			c.Env = make(map[interface{}]interface{})
		}
		c.Env[RequestIDHeader] = id
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.AppendCtx(r.Context(),
			slog.String("request_id", id),
			slog.String("method", r.Method),
		)
		h.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

func recoverer(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic serving request",
					slog.String("path", r.URL.Path),
					slog.Any("panic", err),
					slog.String("stack", string(debug.Stack())))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", RequestIDHeader},
		ExposedHeaders: []string{"ETag", RequestIDHeader},
	}).Handler
}

func gzipHandler(h http.Handler) http.Handler {
	return gzhttp.GzipHandler(h)
}
