package adapthttp

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"phrasebook/internal/domain"

	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
)

const requestIDHeader = "X-Request-Id"

// userFrom returns the user stored by requireUser.
func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// requestID tags each request with an id, reusing a well-formed incoming
// X-Request-Id.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDContextKey, id)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// logging writes one line per request.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		// requireUser runs further down the chain and can only report the
		// user back through this holder.
		holder := &userHolder{}
		ctx := context.WithValue(r.Context(), userHolderKey{}, holder)

		next.ServeHTTP(sw, r.WithContext(ctx))

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Int("bytes", sw.bytes),
			slog.Duration("duration", time.Since(start)),
		}
		if id := requestIDFrom(r.Context()); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if holder.userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", holder.userID))
		}
		s.logger().LogAttrs(r.Context(), slog.LevelInfo, "request", attrs...)
	})
}

type userHolderKey struct{}

type userHolder struct {
	userID int64
}

// recoverer turns a handler panic into a 500 page.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger().ErrorContext(r.Context(), "panic serving request",
					slog.Any("panic", rec),
					slog.String("request_id", requestIDFrom(r.Context())),
					slog.String("stack", string(debug.Stack())))
				writeErrorPage(w, http.StatusInternalServerError, genericMessage)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the session cookie and stores the user in the
// request context. Requests without a live session get the 401 page.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.ValidateSession(r.Context(), s.cookies.token(r))
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if h, ok := r.Context().Value(userHolderKey{}).(*userHolder); ok {
			h.userID = user.ID
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logger() *slog.Logger {
	if s.log == nil {
		return slog.Default()
	}
	return s.log
}
