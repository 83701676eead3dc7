package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/praxxy/backoffice/middleware"
	"github.com/praxxy/backoffice/utils"
)

// Page is what the browser app boots from: a component name and its props.
type Page struct {
	Component string `json:"component"`
	Props     gin.H  `json:"props"`
	URL       string `json:"url"`
}

// render answers with the page as JSON for app navigations and as the HTML shell otherwise.
func render(ctx *gin.Context, component string, props gin.H) {
	if props == nil {
		props = gin.H{}
	}
	if u := middleware.CurrentUser(ctx); u != nil {
		props["auth"] = gin.H{"user": gin.H{"id": u.ID, "name": u.Name, "email": u.Email}}
	}
	page := Page{Component: component, Props: props, URL: ctx.Request.URL.RequestURI()}

	if utils.WantsJSON(ctx) {
		ctx.Header("Vary", "X-Inertia")
		ctx.Header("X-Inertia", "true")
		ctx.JSON(http.StatusOK, page)
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		utils.Logger.Error("encode page props failed", zap.String("component", component), zap.Error(err))
		ctx.String(http.StatusInternalServerError, utils.MsgInternal)
		return
	}
	ctx.HTML(http.StatusOK, "app.html", gin.H{
		"Title":    component,
		"PageJSON": string(data),
	})
}
