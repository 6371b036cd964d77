package adapthttp

import (
	"io/fs"
	"log/slog"
	"net/http"

	"phrasebook/internal/app"

	"github.com/gorilla/mux"
)

// Options configures the HTTP adapter.
type Options struct {
	CookieName     string
	CookieSecret   []byte
	CookieSecure   bool
	MaxUploadBytes int64
	// SSO enables the OpenID Connect routes when non-nil.
	SSO *SSO
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	lists   *app.PhraseListService
	imports *app.ImportService

	cookies   *sessionCookies
	sso       *SSO
	pages     *pages
	maxUpload int64
	log       *slog.Logger
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, lists *app.PhraseListService, imports *app.ImportService, log *slog.Logger, opts Options) (*Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Server{
		auth:      auth,
		lists:     lists,
		imports:   imports,
		cookies:   newSessionCookies(opts.CookieName, opts.CookieSecret, opts.CookieSecure),
		sso:       opts.SSO,
		pages:     p,
		maxUpload: opts.MaxUploadBytes,
		log:       log,
	}, nil
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.logging, s.recoverer)
	r.MethodNotAllowedHandler = s.logging(http.HandlerFunc(methodNotAllowed))
	r.NotFoundHandler = s.logging(http.HandlerFunc(http.NotFound))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	static, _ := fs.Sub(webFS, "web/static")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(static))).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegisterForm).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/auth/sso/login", s.handleSSOLogin).Methods(http.MethodGet)
	r.HandleFunc("/auth/sso/callback", s.handleSSOCallback).Methods(http.MethodGet)

	r.Handle("/mypage", s.requireUser(http.HandlerFunc(s.handleMyPage))).Methods(http.MethodGet)
	r.Handle("/import", s.requireUser(http.HandlerFunc(s.handleImportForm))).Methods(http.MethodGet)
	r.Handle("/import", s.requireUser(http.HandlerFunc(s.handleImport))).Methods(http.MethodPost)
	r.Handle("/list/{id:[0-9]+}", s.requireUser(http.HandlerFunc(s.handleList))).Methods(http.MethodGet)

	return withNoCache(r)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorPage(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
