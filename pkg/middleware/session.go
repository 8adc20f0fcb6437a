package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/placefinder/pkg/session"
)

const (
	CtxKeySession     = "gin.ctx.session"
	SessionCookieName = "placefinder_session"
)

// Session loads the search session named by the session cookie, starting a
// new one when the cookie is missing or unknown.
func Session(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookieName)

		s := store.Get(id)
		if s.ID != id {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}

		c.Set(CtxKeySession, s)
		c.Request = c.Request.Clone(context.WithValue(c.Request.Context(), CtxKeySessionID, s.ID))
		c.Next()
	}
}

// GetSession returns the session attached by the Session middleware.
func GetSession(c *gin.Context) *session.Session {
	if i, ok := c.Get(CtxKeySession); ok {
		return i.(*session.Session)
	}

	panic("how did we get here without a session?")
}
