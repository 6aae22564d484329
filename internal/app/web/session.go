package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "ytgrab_sid"
	sessionKey    = "session_id"
)

// sessionMiddleware gives every browser a stable session id cookie.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || !validSessionID(sid) {
			sid = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sid, 0, "/", "", false, true)
		}

		c.Set(sessionKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func validSessionID(sid string) bool {
	_, err := uuid.Parse(sid)
	return err == nil
}
