package adapthttp

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"phrasebook/internal/domain"
)

const genericMessage = "Something went wrong."

var kindStatus = map[domain.Kind]int{
	domain.KindStorage:           http.StatusInternalServerError,
	domain.KindHashing:           http.StatusInternalServerError,
	domain.KindInternal:          http.StatusInternalServerError,
	domain.KindUpload:            http.StatusBadRequest,
	domain.KindParse:             http.StatusBadRequest,
	domain.KindDuplicateUsername: http.StatusBadRequest,
	domain.KindUnauthorized:      http.StatusUnauthorized,
}

// statusAndMessage maps err to a status code and a message that is safe
// to show. Server-side failures never expose their cause.
func statusAndMessage(err error) (int, string) {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		return status, genericMessage
	}
	if kind == domain.KindUnauthorized {
		return status, "Unauthorized."
	}

	var derr *domain.Error
	if errors.As(err, &derr) && derr.Msg != "" {
		return status, derr.Msg
	}
	return status, http.StatusText(status)
}

// renderError logs err and writes the error page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusAndMessage(err)

	attrs := []slog.Attr{
		slog.Int("status", status),
		slog.String("kind", domain.KindOf(err).String()),
		slog.String("request_id", requestIDFrom(r.Context())),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		s.logger().LogAttrs(r.Context(), slog.LevelError, "request failed", attrs...)
	} else {
		s.logger().LogAttrs(r.Context(), slog.LevelDebug, "request rejected", attrs...)
	}

	writeErrorPage(w, status, msg)
}

func writeErrorPage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<h1>Error: %s</h1><p><a href="/login">Try again</a></p>`, html.EscapeString(msg))
}
