package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "linkmind_session"
	contextUserIDKey  = "userID"
	contextDeviceKey  = "probeDevice"
)

// sessionMiddleware resolves the caller's user id from the session cookie.
// Session cookie issuance and end-user authentication are out of scope
// (spec.md section 2): the cookie is expected to already hold a
// coordinator-issued numeric user id, minted by whatever front door sits in
// front of this API in a real deployment (the chat bot's login flow, an SSO
// proxy, etc).
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}
		userID, err := strconv.ParseInt(cookie, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}
		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) int64 {
	return c.MustGet(contextUserIDKey).(int64)
}

// probeBearerMiddleware authenticates probe-bearer routes: the sole
// capability required is a valid ProbeDevice token (spec.md section 4.4).
func probeBearerMiddleware(bridge ProbeBridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := auth[len(prefix):]

		device, err := bridge.AuthenticateDevice(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication error"})
			return
		}
		if device == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Set(contextDeviceKey, device)
		c.Next()
	}
}
