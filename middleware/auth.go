package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/utils"
)

const (
	// ContextUserKey holds the authenticated *models.User in Gin context.
	ContextUserKey = "auth_user"
	// LoginPath is where browsers are sent when not logged in.
	LoginPath = "/login"
	// HomePath is where logged-in users land.
	HomePath = "/dashboard"
)

// AuthRequired ensures the session belongs to an existing user.
// JSON callers get 401; browser navigations are redirected to the login page.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sess := session.Default(ctx)
		uid := sess.UserID()
		if uid == 0 {
			unauthenticated(ctx)
			return
		}
		var user models.User
		if err := db.WithContext(ctx.Request.Context()).First(&user, uid).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Logger.Error("load session user failed", zap.Uint("user_id", uid), zap.Error(err))
			}
			sess.Delete(session.KeyUserID)
			unauthenticated(ctx)
			return
		}
		ctx.Set(ContextUserKey, &user)
		ctx.Next()
	}
}

// GuestOnly sends logged-in users away from the login page.
func GuestOnly() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if session.Default(ctx).UserID() != 0 {
			ctx.Redirect(http.StatusFound, HomePath)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func unauthenticated(ctx *gin.Context) {
	if utils.WantsJSON(ctx) {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthenticated.")
	} else {
		ctx.Redirect(http.StatusFound, LoginPath)
	}
	ctx.Abort()
}

// CurrentUser returns the user set by AuthRequired.
func CurrentUser(ctx *gin.Context) *models.User {
	if v, ok := ctx.Get(ContextUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
