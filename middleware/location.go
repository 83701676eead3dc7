package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/validation"
)

// LocationTracking overwrites the session location when a page load carries valid
// latitude and longitude query parameters. Invalid pairs are ignored, and so are
// non-GET requests, which report their location through POST /location.
func LocationTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && c.Query("latitude") != "" && c.Query("longitude") != "" {
			var q validation.Coordinates
			if c.ShouldBindQuery(&q) == nil {
				session.Default(c).SetLocation(*q.Latitude, *q.Longitude, time.Now())
			}
		}
		c.Next()
	}
}
