package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsHeaders = "Authorization,Content-Type"
	corsMaxAge  = 24 * time.Hour
)

// CORS echoes the request origin when it is listed, or answers "*" when the
// list contains "*". Preflight requests stop here with 204.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = true
	}
	maxAge := strconv.Itoa(int(corsMaxAge / time.Second))

	return func(c *gin.Context) {
		header := c.Writer.Header()
		switch origin := c.GetHeader("Origin"); {
		case origin == "":
		case allowAny:
			header.Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			header.Set("Access-Control-Allow-Origin", origin)
			header.Add("Vary", "Origin")
		}
		header.Set("Access-Control-Allow-Methods", corsMethods)
		header.Set("Access-Control-Allow-Headers", corsHeaders)
		header.Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
