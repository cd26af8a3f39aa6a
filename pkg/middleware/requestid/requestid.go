package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id on both the request and the response.
const Header = "X-Request-ID"

const (
	contextKey = "request_id"
	maxIDLen   = 64
)

// Middleware tags every request with an id. A caller-supplied X-Request-ID is
// kept when it fits, otherwise a fresh UUID is assigned; either way the id is
// echoed on the response so clients can correlate logs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" || len(id) > maxIDLen {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Header(Header, id)

		c.Next()
	}
}

// Value returns the request id set by Middleware, or "" outside of it.
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}
