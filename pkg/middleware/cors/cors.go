package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Methods and headers the API actually serves; browsers are not offered more.
const (
	allowedMethods = "GET, POST, PATCH, OPTIONS"
	allowedHeaders = "Authorization, Content-Type, X-Request-ID"
	preflightCache = "300"
)

// New builds a CORS middleware for the configured origins. An empty origin
// list allows any origin, which is only sensible for local development.
func New(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[normalize(origin)] = struct{}{}
	}

	return func(c *gin.Context) {
		c.Header("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin != "" && permitted(allowed, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", allowedMethods)
			c.Header("Access-Control-Allow-Headers", allowedHeaders)
			c.Header("Access-Control-Max-Age", preflightCache)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func permitted(allowed map[string]struct{}, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
