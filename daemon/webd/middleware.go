package webd

import (
	"bytes"
	ghandlers "github.com/gorilla/handlers"
	"log/slog"
	"net/http"
)

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, If-None-Match")
		w.Header().Add("Access-Control-Expose-Headers", "ETag")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// accessLogWriter hands common log format lines to a logger, one record per line.
type accessLogWriter struct {
	logger *slog.Logger
}

func (w accessLogWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		w.logger.Info(string(line))
	}
	return len(p), nil
}

// https://github.com/gorilla/mux#middleware
func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.LoggingHandler(accessLogWriter{logger: s.logger.With("log", "access")}, next)
}
