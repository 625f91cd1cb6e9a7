package session

import (
	"github.com/gin-gonic/gin"
)

const (
	CookieName = "cart_session"
	ctxKey     = "session"
)

// Middleware attaches the visitor's session to the gin context, creating a
// fresh one (and setting the cookie) when none exists or it has expired.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *Session
		if token, err := c.Cookie(CookieName); err == nil {
			sess, _ = store.Get(token)
		}
		if sess == nil {
			sess = store.Create()
			maxAge := int(store.ttl.Seconds())
			c.SetCookie(CookieName, sess.Token, maxAge, "/", "", false, true)
		}
		c.Set(ctxKey, sess)
		c.Next()
	}
}

// FromContext returns the request's session. The session middleware must be
// installed on the route.
func FromContext(c *gin.Context) *Session {
	return c.MustGet(ctxKey).(*Session)
}
