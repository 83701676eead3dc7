package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
)

// SidebarController renders the management page shells. Their data is fetched by the browser app.
type SidebarController struct {
	db *gorm.DB
}

// NewSidebarController creates a new SidebarController instance.
func NewSidebarController(db *gorm.DB) *SidebarController {
	return &SidebarController{db: db}
}

func (s *SidebarController) ProductManagement(ctx *gin.Context) {
	render(ctx, "Sidebar/ProductManagement", gin.H{"categories": models.ProductCategories})
}

// VideoManagement embeds the latest videos and consumes any pending flash messages.
func (s *SidebarController) VideoManagement(ctx *gin.Context) {
	videos, err := latestVideos(ctx.Request.Context(), s.db)
	if err != nil {
		respondError(ctx, err, "Failed to load videos", "")
		return
	}
	sess := session.Default(ctx)
	render(ctx, "Sidebar/VideoManagement", gin.H{
		"videos": videos,
		"flash": gin.H{
			"success": sess.TakeFlash("success"),
			"error":   sess.TakeFlash("error"),
		},
	})
}

func (s *SidebarController) UserManagement(ctx *gin.Context) {
	render(ctx, "Sidebar/UserManagement", nil)
}
