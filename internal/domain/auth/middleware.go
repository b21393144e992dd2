package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const userIDContextKey = "auth.user_id"

// Sessions wraps the cookie store so handlers and middleware agree on the
// session name and payload shape.
type Sessions struct {
	store *sessions.CookieStore
	name  string
}

// NewSessions creates a cookie-backed session layer.
func NewSessions(secret, name string) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, name: name}
}

// Issue writes the user ID into a session cookie on the response.
func (s *Sessions) Issue(c echo.Context, userID uuid.UUID) error {
	sess, _ := s.store.Get(c.Request(), s.name)
	sess.Values["user_id"] = userID.String()
	return sess.Save(c.Request(), c.Response())
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c echo.Context) error {
	sess, _ := s.store.Get(c.Request(), s.name)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

func (s *Sessions) userID(c echo.Context) (uuid.UUID, bool) {
	sess, err := s.store.Get(c.Request(), s.name)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := sess.Values["user_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}

// Middleware authenticates requests from a bearer token or, failing that,
// the session cookie, and stores the user ID on the echo context.
func Middleware(tokens *TokenManager, sessions *Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if header := c.Request().Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
				if err == nil {
					c.Set(userIDContextKey, userID)
					return next(c)
				}
			}

			if userID, ok := sessions.userID(c); ok {
				c.Set(userIDContextKey, userID)
				return next(c)
			}

			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}
	}
}

// UserID returns the authenticated user for the request. Handlers behind the
// middleware can rely on it being set.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDContextKey).(uuid.UUID)
	return id, ok
}
