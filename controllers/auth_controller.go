package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/middleware"
	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
)

const msgBadCredentials = "These credentials do not match our records."

// AuthController handles session login and logout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// LoginPage renders the login screen with any pending flash messages.
func (a *AuthController) LoginPage(ctx *gin.Context) {
	render(ctx, "Auth/Login", gin.H{"flash": session.Default(ctx).Flashes()})
}

// Login verifies credentials and binds the user to a fresh session id.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `form:"email" json:"email" binding:"required,email"`
		Password string `form:"password" json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBind(&req); err != nil {
		a.loginFailed(ctx, validation.FromBinding(err, nil))
		return
	}

	var user models.User
	err := a.db.WithContext(ctx.Request.Context()).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(ctx, err, "Login failed", "")
		return
	}
	if err != nil || !user.CheckPassword(req.Password) {
		utils.Logger.Info("login rejected", zap.String("email", req.Email), zap.String("ip", middleware.ClientIP(ctx)))
		a.loginFailed(ctx, validation.Errors{"email": msgBadCredentials})
		return
	}

	sess := session.Default(ctx)
	sess.Regenerate()
	sess.SetUserID(user.ID)
	utils.Logger.Info("login", zap.Uint("user_id", user.ID))

	if utils.WantsJSON(ctx) {
		utils.Message(ctx, "Logged in", summarize(user))
		return
	}
	ctx.Redirect(http.StatusSeeOther, middleware.HomePath)
}

func (a *AuthController) loginFailed(ctx *gin.Context, errs validation.Errors) {
	if utils.WantsJSON(ctx) {
		utils.ValidationFailed(ctx, errs)
		return
	}
	session.Default(ctx).Flash("error", strings.Join(errs.Messages(), " "))
	ctx.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

// Logout drops the session.
func (a *AuthController) Logout(ctx *gin.Context) {
	session.Default(ctx).Invalidate()
	if utils.WantsJSON(ctx) {
		utils.Message(ctx, "Logged out", nil)
		return
	}
	ctx.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
