package quill

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/quill/blog"
)

const sessionName = "quill_session"

// IdentityResolver resolves the caller of a request. It returns nil when the
// request carries no valid session; that is not an error.
type IdentityResolver interface {
	Resolve(c echo.Context) *blog.Identity
}

// SessionResolver reads the identity written by the login handler into the
// session cookie.
type SessionResolver struct{}

func (SessionResolver) Resolve(c echo.Context) *blog.Identity {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	email, _ := sess.Values["email"].(string)
	if email == "" {
		return nil
	}
	name, _ := sess.Values["name"].(string)
	return &blog.Identity{Email: email, Name: name}
}

// TokenResolver reads an "Authorization: Bearer" token.
type TokenResolver struct {
	Tokens *TokenIssuer
}

func (r TokenResolver) Resolve(c echo.Context) *blog.Identity {
	token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil
	}
	claims, err := r.Tokens.Verify(token)
	if err != nil {
		return nil
	}
	return &blog.Identity{Email: claims.Email, Name: claims.Name}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ChainResolver tries each resolver in order and returns the first identity.
type ChainResolver []IdentityResolver

func (ch ChainResolver) Resolve(c echo.Context) *blog.Identity {
	for _, r := range ch {
		if id := r.Resolve(c); id != nil {
			return id
		}
	}
	return nil
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

func setSessionIdentity(c echo.Context, u blog.User) error {
	// A stale or tampered cookie still yields a fresh session to overwrite.
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return err
	}
	sess.Values["email"] = u.Email
	if u.Name != nil {
		sess.Values["name"] = *u.Name
	}
	return sess.Save(c.Request(), c.Response())
}

func clearSession(c echo.Context) error {
	// A stale or tampered cookie still yields a fresh session to overwrite.
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
