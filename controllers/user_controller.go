package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/middleware"
	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
)

// UserController manages back-office accounts.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

type createUserRequest struct {
	Name     string `form:"name" json:"name" binding:"required,max=255"`
	Email    string `form:"email" json:"email" binding:"required,email,max=255"`
	Password string `form:"password" json:"password" binding:"required,min=8"`
}

type updateUserRequest struct {
	Name     string `form:"name" json:"name" binding:"required,max=255"`
	Email    string `form:"email" json:"email" binding:"required,email,max=255"`
	Password string `form:"password" json:"password" binding:"omitempty,min=8"`
}

func (r *createUserRequest) Sanitize() {
	r.Name = utils.SanitizeText(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *updateUserRequest) Sanitize() {
	r.Name = utils.SanitizeText(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func summarize(u models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// ListUsers returns users ten per page, newest first.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))
	db := u.db.WithContext(ctx.Request.Context())

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		respondError(ctx, err, "Failed to list users", "")
		return
	}
	users := []models.UserSummary{}
	if err := db.Model(&models.User{}).Select("id", "name", "email", "created_at").
		Order("created_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).
		Scan(&users).Error; err != nil {
		respondError(ctx, err, "Failed to list users", "")
		return
	}
	utils.Success(ctx, paginated(users, page, total))
}

// emailTaken reports whether another account already uses email.
func (u *UserController) emailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	q := u.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CreateUser adds an account.
func (u *UserController) CreateUser(ctx *gin.Context) {
	var req createUserRequest
	errs := validation.Errors{}
	if err := ctx.ShouldBind(&req); err != nil {
		errs.Merge(validation.FromBinding(err, nil))
	}
	if _, failed := errs["email"]; !failed {
		taken, err := u.emailTaken(ctx.Request.Context(), req.Email, 0)
		if err != nil {
			respondError(ctx, err, "Failed to create user", "")
			return
		}
		if taken {
			errs.Add("email", "The email has already been taken.")
		}
	}
	if len(errs) > 0 {
		utils.ValidationFailed(ctx, errs)
		return
	}

	user := models.User{Name: req.Name, Email: req.Email}
	if err := user.SetPassword(req.Password); err != nil {
		respondError(ctx, err, "Failed to create user", "")
		return
	}
	if err := u.db.WithContext(ctx.Request.Context()).Create(&user).Error; err != nil {
		respondError(ctx, err, "Failed to create user", "")
		return
	}
	utils.Created(ctx, "User created successfully", summarize(user))
}

// GetUser returns one account.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "User not found")
		return
	}
	var user models.User
	if err := u.db.WithContext(ctx.Request.Context()).First(&user, id).Error; err != nil {
		respondError(ctx, err, "Failed to load user", "User not found")
		return
	}
	utils.Success(ctx, summarize(user))
}

// UpdateUser changes name and email, and the password when one is given.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "User not found")
		return
	}
	rctx := ctx.Request.Context()
	var user models.User
	if err := u.db.WithContext(rctx).First(&user, id).Error; err != nil {
		respondError(ctx, err, "Failed to update user", "User not found")
		return
	}

	var req updateUserRequest
	errs := validation.Errors{}
	if err := ctx.ShouldBind(&req); err != nil {
		errs.Merge(validation.FromBinding(err, nil))
	}
	if _, failed := errs["email"]; !failed {
		taken, err := u.emailTaken(rctx, req.Email, user.ID)
		if err != nil {
			respondError(ctx, err, "Failed to update user", "")
			return
		}
		if taken {
			errs.Add("email", "The email has already been taken.")
		}
	}
	if len(errs) > 0 {
		utils.ValidationFailed(ctx, errs)
		return
	}

	user.Name = req.Name
	user.Email = req.Email
	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			respondError(ctx, err, "Failed to update user", "")
			return
		}
	}
	tx := u.db.WithContext(rctx).Model(&user).Select("Name", "Email", "Password", "UpdatedAt").Updates(&user)
	if err := rowsOrNotFound(tx); err != nil {
		respondError(ctx, err, "Failed to update user", "User not found")
		return
	}
	utils.Message(ctx, "User updated successfully", summarize(user))
}

// DeleteUser removes an account. Nobody can delete the account they are logged in with.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "User not found")
		return
	}
	if me := middleware.CurrentUser(ctx); me != nil && me.ID == id {
		utils.Error(ctx, http.StatusForbidden, utils.CodeForbidden, "You cannot delete your own account.")
		return
	}
	if err := rowsOrNotFound(u.db.WithContext(ctx.Request.Context()).Delete(&models.User{}, id)); err != nil {
		respondError(ctx, err, "Failed to delete user", "User not found")
		return
	}
	utils.Message(ctx, "User deleted successfully", nil)
}
