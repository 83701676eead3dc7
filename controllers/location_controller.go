package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
)

// LocationController stores the browser's coordinates on the session.
type LocationController struct {
	now func() time.Time
}

// NewLocationController creates a new LocationController instance.
func NewLocationController() *LocationController {
	return &LocationController{now: time.Now}
}

// Update validates both coordinates and writes them together, or writes nothing.
func (l *LocationController) Update(ctx *gin.Context) {
	var req validation.Coordinates
	if err := ctx.ShouldBind(&req); err != nil {
		utils.ValidationFailed(ctx, validation.FromBinding(err, validation.CoordinateMessages))
		return
	}
	lat, lng := *req.Latitude, *req.Longitude
	at := l.now().UTC()
	session.Default(ctx).SetLocation(lat, lng, at)
	utils.Message(ctx, "Location updated successfully", gin.H{
		"latitude":   lat,
		"longitude":  lng,
		"updated_at": at.Format(time.RFC3339),
	})
}

// Show returns the stored location, with nulls when unset.
func (l *LocationController) Show(ctx *gin.Context) {
	utils.Success(ctx, session.Default(ctx).Location())
}
