package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxLoggedBody caps request and response bodies in debug logs
const maxLoggedBody = 4096

// responseWriter captures the status code and, at debug level, the response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs every request. The completion line is logged at ERROR for 5xx,
// WARN for 4xx and INFO otherwise. At DEBUG, query parameters and bodies are included.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

		attrs := []any{
			"remote_ip", getIP(r),
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
		}

		var responseBody *bytes.Buffer
		if debug {
			var requestBody []byte
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(requestBody))
			}

			debugAttrs := append([]any{}, attrs...)
			if len(r.URL.Query()) > 0 {
				debugAttrs = append(debugAttrs, "query_params", r.URL.Query())
			}
			if len(requestBody) > 0 {
				debugAttrs = append(debugAttrs, "request_body", truncate(requestBody))
			}
			slog.Debug("Incoming request", debugAttrs...)

			responseBody = &bytes.Buffer{}
		} else {
			slog.Info("Incoming request", attrs...)
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           responseBody,
		}

		next.ServeHTTP(wrapped, r)

		level := slog.LevelInfo
		message := "Request completed"
		switch {
		case wrapped.statusCode >= 500:
			level = slog.LevelError
			message = "Request failed with error"
		case wrapped.statusCode >= 400:
			level = slog.LevelWarn
			message = "Request failed"
		}

		attrs = append(attrs,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if responseBody != nil && responseBody.Len() > 0 {
			attrs = append(attrs, "response_body", truncate(responseBody.Bytes()))
		}

		slog.Log(r.Context(), level, message, attrs...)
	})
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "..."
	}
	return string(b)
}
