package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Context keys set by Identity.
const (
	CtxClientID = "clientID"
	CtxUserID   = "userID"
)

// Identity reads the caller identity forwarded by the auth layer in front of
// this service (X-Client-ID for guests, X-User-ID for staff). Authentication
// itself happens upstream; this service only consumes the verdict.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-Client-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Set(CtxClientID, uint(id))
			}
		}
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Set(CtxUserID, uint(id))
			}
		}
		c.Next()
	}
}

// ClientID returns the authenticated client id, if any.
func ClientID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CtxClientID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// UserID returns the authenticated staff user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
