package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/praxxy/backoffice/dashboard"
)

// DashboardController serves the statistics page.
type DashboardController struct {
	aggregator *dashboard.Aggregator
}

// NewDashboardController creates a new DashboardController instance.
func NewDashboardController(aggregator *dashboard.Aggregator) *DashboardController {
	return &DashboardController{aggregator: aggregator}
}

// Show recomputes the statistics on every request.
func (d *DashboardController) Show(ctx *gin.Context) {
	render(ctx, "Dashboard", gin.H{"stats": d.aggregator.Compute(ctx.Request.Context())})
}
