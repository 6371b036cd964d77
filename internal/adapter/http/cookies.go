package adapthttp

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	defaultCookieName = "session_id"
	tokenKey          = "token"
)

// sessionCookies stores the session token in a signed cookie. The cookie
// is authenticated but not encrypted; the token itself is resolved
// server-side.
type sessionCookies struct {
	store *sessions.CookieStore
	name  string
}

// newSessionCookies creates the cookie codec. An empty secret gets a
// random key, so cookies do not survive a restart.
func newSessionCookies(name string, secret []byte, secure bool) *sessionCookies {
	if name == "" {
		name = defaultCookieName
	}
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(secret)
	// NewCookieStore caps decoding at 30 days; session lifetime is
	// governed by the server-side registry instead.
	store.MaxAge(0)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionCookies{store: store, name: name}
}

// token returns the session token carried by r, or "" when the cookie is
// missing or fails verification.
func (c *sessionCookies) token(r *http.Request) string {
	sess, err := c.store.Get(r, c.name)
	if err != nil {
		return ""
	}
	tok, _ := sess.Values[tokenKey].(string)
	return tok
}

func (c *sessionCookies) set(w http.ResponseWriter, r *http.Request, token string) error {
	// Get never fails hard; a bad cookie yields a fresh session.
	sess, _ := c.store.Get(r, c.name)
	sess.Values[tokenKey] = token
	sess.Options.MaxAge = 0
	return sess.Save(r, w)
}

func (c *sessionCookies) clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.Get(r, c.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
