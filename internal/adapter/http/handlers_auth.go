// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", nil)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")

	if _, err := s.auth.Register(r.Context(), username, password); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "registered", struct{ Username string }{username})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if token := s.cookies.token(r); token != "" {
		if _, err := s.auth.ValidateSession(r.Context(), token); err == nil {
			http.Redirect(w, r, "/mypage", http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, "login", struct{ SSOEnabled bool }{s.sso != nil})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")

	token, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.startSession(w, r, token)
}

// startSession hands token to the client and sends it to /mypage.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, token string) {
	if err := s.cookies.set(w, r, token); err != nil {
		_ = s.auth.Logout(r.Context(), token)
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/mypage", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), s.cookies.token(r)); err != nil {
		s.renderError(w, r, err)
		return
	}
	_ = s.cookies.clear(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
