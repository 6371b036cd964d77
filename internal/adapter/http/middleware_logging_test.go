package adapthttp

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"phrasebook/internal/domain"

	"golang.org/x/oauth2"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{log: slog.New(slog.NewTextHandler(&buf, nil))}

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	})
	handler := s.requestID(s.logging(nextHandler))

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	logOutput := buf.String()
	for _, want := range []string{"method=GET", "path=/test-path", "status=418", "bytes=2", "request_id=" + w.Header().Get(requestIDHeader)} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("Log output missing %q. Got: %s", want, logOutput)
		}
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{log: slog.New(slog.NewTextHandler(&buf, nil))}

	handler := s.logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("expected status=200, got: %s", buf.String())
	}
}

func TestRequestID(t *testing.T) {
	s := &Server{}
	var seen string
	handler := s.requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if seen == "" || w.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected generated id in context and header, got %q / %q", seen, w.Header().Get(requestIDHeader))
	}

	const incoming = "8a6e0804-2bd0-4672-b79d-d97027f9071a"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("expected incoming id to be reused, got %q", seen)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "<script>")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "<script>" {
		t.Error("malformed incoming id must be replaced")
	}
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{log: slog.New(slog.NewTextHandler(&buf, nil))}

	handler := s.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), genericMessage) {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic serving request") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestStatusAndMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"storage hides cause", domain.E(domain.KindStorage, "", errors.New("password=hunter2")), 500, genericMessage},
		{"hashing", domain.E(domain.KindHashing, "", errors.New("bcrypt")), 500, genericMessage},
		{"unclassified", errors.New("oops"), 500, genericMessage},
		{"upload", domain.E(domain.KindUpload, "Upload error: too big", nil), 400, "Upload error: too big"},
		{"parse", domain.E(domain.KindParse, "CSV parsing error: line 3: x", nil), 400, "CSV parsing error: line 3: x"},
		{"duplicate", domain.E(domain.KindDuplicateUsername, "Username already exists.", nil), 400, "Username already exists."},
		{"unauthorized", domain.Unauthorized(), 401, "Unauthorized."},
		{"unauthorized with cause", domain.E(domain.KindUnauthorized, "", errors.New("token expired")), 401, "Unauthorized."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := statusAndMessage(tt.err)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Errorf("got %d %q, want %d %q", status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestWriteErrorPage_Escapes(t *testing.T) {
	w := httptest.NewRecorder()
	writeErrorPage(w, http.StatusBadRequest, `CSV parsing error: <b>"x"</b>`)

	if strings.Contains(w.Body.String(), "<b>") {
		t.Errorf("message must be escaped: %s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestSSOLoginRedirect(t *testing.T) {
	s := &Server{sso: &SSO{oauth2: oauth2.Config{
		ClientID:    "phrasebook",
		RedirectURL: "http://localhost:3000/auth/sso/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example/auth", TokenURL: "https://idp.example/token"},
		Scopes:      []string{"openid"},
	}}}

	w := httptest.NewRecorder()
	s.handleSSOLogin(w, httptest.NewRequest("GET", "/auth/sso/login", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil || loc.Host != "idp.example" {
		t.Fatalf("unexpected redirect %q", w.Header().Get("Location"))
	}

	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == stateCookieName {
			state = c.Value
		}
	}
	if state == "" || loc.Query().Get("state") != state {
		t.Errorf("state cookie %q does not match redirect state %q", state, loc.Query().Get("state"))
	}
	if loc.Query().Get("client_id") != "phrasebook" {
		t.Errorf("missing client id in %s", loc)
	}
}

func TestSSOCallback_StateMismatch(t *testing.T) {
	s := &Server{sso: &SSO{}}

	req := httptest.NewRequest("GET", "/auth/sso/callback?state=abc&code=x", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "different"})
	w := httptest.NewRecorder()
	s.handleSSOCallback(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.handleSSOCallback(w, httptest.NewRequest("GET", "/auth/sso/callback?state=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without state cookie, got %d", w.Code)
	}
}

func TestGenerateState(t *testing.T) {
	state, err := generateState(bytes.NewReader(make([]byte, 16)))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if state != "AAAAAAAAAAAAAAAAAAAAAA==" {
		t.Errorf("unexpected state %q", state)
	}

	if _, err := generateState(bytes.NewReader(make([]byte, 4))); err == nil {
		t.Error("expected error from a short random source")
	}
}
