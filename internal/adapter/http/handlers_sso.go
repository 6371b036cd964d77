package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"phrasebook/internal/config"
	"phrasebook/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const stateCookieName = "oauth_state"

// SSO holds the OpenID Connect client used by the /auth/sso routes.
type SSO struct {
	oauth2   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewSSO discovers the provider at cfg.Issuer.
func NewSSO(ctx context.Context, cfg config.OIDCConfig) (*SSO, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %s: %w", cfg.Issuer, err)
	}
	return &SSO{
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		http.NotFound(w, r)
		return
	}
	state, err := generateState(rand.Reader)
	if err != nil {
		s.renderError(w, r, fmt.Errorf("generate state: %w", err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.oauth2.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		http.NotFound(w, r)
		return
	}

	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		writeErrorPage(w, http.StatusBadRequest, "Invalid login state.")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, MaxAge: -1, Path: "/"})

	token, err := s.sso.oauth2.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.renderError(w, r, domain.E(domain.KindUnauthorized, "", fmt.Errorf("exchange code: %w", err)))
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		s.renderError(w, r, domain.E(domain.KindUnauthorized, "", errors.New("token response has no id_token")))
		return
	}
	idToken, err := s.sso.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		s.renderError(w, r, domain.E(domain.KindUnauthorized, "", fmt.Errorf("verify id token: %w", err)))
		return
	}

	if idToken.Subject == "" {
		s.renderError(w, r, domain.E(domain.KindUnauthorized, "", errors.New("id token has no subject")))
		return
	}

	sessionToken, err := s.auth.LoginWithUser(r.Context(), idToken.Subject)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.startSession(w, r, sessionToken)
}

func generateState(random io.Reader) (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
