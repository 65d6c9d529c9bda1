package api

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/telemetry"
)

// HeaderUserID — заголовок с ID пользователя.
// Для websocket допускается query-параметр user_id: браузер не умеет
// выставлять заголовки при upgrade.
const HeaderUserID = "X-User-ID"

// Middleware — функция-обёртка для http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware в порядке слева направо.
// Chain(m1, m2)(handler) = m1(m2(handler))
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Logging логирует HTTP запросы.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)

			next.ServeHTTP(rw, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Metrics считает запросы в langweave_api_http_requests_total.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrap(w)
			next.ServeHTTP(rw, r)
			telemetry.APIRequests.WithLabelValues(r.Method, strconv.Itoa(rw.status)).Inc()
		})
	}
}

// Recovery восстанавливается после паники.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type userKey struct{}

// RequireUser достаёт ID пользователя из X-User-ID (или ?user_id=)
// и кладёт его в context запроса. Без него запрос отклоняется с 401.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderUserID)
			if raw == "" {
				raw = r.URL.Query().Get("user_id")
			}
			if raw == "" {
				Unauthorized(w, "missing "+HeaderUserID+" header")
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				Unauthorized(w, "invalid user id")
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom возвращает пользователя, положенного RequireUser.
func userFrom(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userKey{}).(uuid.UUID)
	return id
}

// responseWriter — обёртка для захвата статуса ответа.
// Hijack нужен для websocket upgrade через middleware.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrap(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(status int) {
	if !rw.wroteHeader {
		rw.status = status
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
