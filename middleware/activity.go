package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/utils"
)

// SessionActivityRecorder upserts one row per session with its last activity,
// which the dashboard counts as visitors.
func SessionActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/storage/") {
			return
		}

		sess := session.Default(c)
		row := models.SessionActivity{
			ID:           sess.ID(),
			IPAddress:    ClientIP(c),
			UserAgent:    c.Request.UserAgent(),
			LastActivity: time.Now().Unix(),
		}
		if uid := sess.UserID(); uid != 0 {
			row.UserID = &uid
		}
		loc := sess.Location()
		row.LocationLatitude = loc.Latitude
		row.LocationLongitude = loc.Longitude
		row.LocationLastUpdated = loc.LastUpdated

		// Atomic upsert to avoid duplicate key errors under concurrency
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "ip_address", "user_agent", "last_activity",
				"location_latitude", "location_longitude", "location_last_updated",
			}),
		}).Create(&row).Error
		if err != nil {
			utils.Logger.Warn("record session activity failed", zap.String("session_id", row.ID), zap.Error(err))
		}
	}
}
