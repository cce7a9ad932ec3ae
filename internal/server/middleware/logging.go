package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// UserFunc names the signed-in user for a request, or returns "".
type UserFunc func(r *http.Request) string

type logNotesKey struct{}

// logNotes collects attributes that inner handlers add to the request line.
type logNotes struct {
	mu    sync.Mutex
	attrs []any
}

// Annotate adds key/value attributes to the request log line written by
// Logger. Outside Logger it does nothing.
func Annotate(ctx context.Context, attrs ...any) {
	notes, ok := ctx.Value(logNotesKey{}).(*logNotes)
	if !ok {
		return
	}
	notes.mu.Lock()
	notes.attrs = append(notes.attrs, attrs...)
	notes.mu.Unlock()
}

// Logger returns an HTTP middleware that writes one structured line per
// request: method, path, status, size, duration, request ID and remote
// address, the signed-in user when user names one, and anything inner
// handlers added with Annotate (the route guard records its outcome there).
// 5xx responses log at error level, 4xx at warn.
func Logger(logger *slog.Logger, user UserFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			notes := &logNotes{}
			r = r.WithContext(context.WithValue(r.Context(), logNotesKey{}, notes))
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"bytes", rec.bytes,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if user != nil {
				if name := user(r); name != "" {
					attrs = append(attrs, "user", name)
				}
			}
			notes.mu.Lock()
			attrs = append(attrs, notes.attrs...)
			notes.mu.Unlock()

			logger.Log(r.Context(), level, "request", attrs...)
		})
	}
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
