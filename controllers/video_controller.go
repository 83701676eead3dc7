package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/attachments"
	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/storage"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
)

// VideoManagementPath is where form-style video actions return to.
const VideoManagementPath = "/video-management"

// VideoController manages uploaded videos and their thumbnails.
type VideoController struct {
	db         *gorm.DB
	reconciler *attachments.Reconciler
}

// NewVideoController creates a new VideoController instance.
func NewVideoController(db *gorm.DB, reconciler *attachments.Reconciler) *VideoController {
	return &VideoController{db: db, reconciler: reconciler}
}

type videoForm struct {
	Title       string `form:"title" binding:"required,max=255"`
	Description string `form:"description"`
}

func (f *videoForm) Sanitize() {
	f.Title = utils.SanitizeText(f.Title)
	f.Description = utils.SanitizeText(f.Description)
}

// ListVideos returns every video, latest first.
func (v *VideoController) ListVideos(ctx *gin.Context) {
	videos, err := latestVideos(ctx.Request.Context(), v.db)
	if err != nil {
		respondError(ctx, err, "Failed to list videos", "")
		return
	}
	utils.Success(ctx, videos)
}

func latestVideos(ctx context.Context, db *gorm.DB) ([]models.Video, error) {
	videos := []models.Video{}
	err := db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&videos).Error
	return videos, err
}

func (v *VideoController) bind(ctx *gin.Context, videoRequired bool) (videoForm, []attachments.Item, validation.Errors) {
	errs := validation.Errors{}
	var form videoForm
	if err := ctx.ShouldBind(&form); err != nil {
		errs.Merge(validation.FromBinding(err, nil))
	}

	var items []attachments.Item
	if fh := formFile(ctx, "video"); fh != nil {
		if msg := validation.VideoRule.Check(fh); msg != "" {
			errs.Add("video", msg)
		}
		items = append(items, attachments.Item{Prefix: storage.PrefixVideos, File: attachments.FromFileHeader(fh)})
	} else if videoRequired {
		errs.Add("video", "The video field is required.")
	}
	if fh := formFile(ctx, "thumbnail"); fh != nil {
		if msg := validation.ThumbnailRule.Check(fh); msg != "" {
			errs.Add("thumbnail", msg)
		}
		items = append(items, attachments.Item{Prefix: storage.PrefixThumbnails, File: attachments.FromFileHeader(fh)})
	}
	return form, items, errs
}

// CreateVideo stores the video (and thumbnail) and then the record.
func (v *VideoController) CreateVideo(ctx *gin.Context) {
	form, items, errs := v.bind(ctx, true)
	if len(errs) > 0 {
		formInvalid(ctx, errs)
		return
	}

	rctx := ctx.Request.Context()
	var video models.Video
	_, err := v.reconciler.Create(rctx, items, func(urls []string) error {
		video = models.Video{Title: form.Title, Description: optional(form.Description), URL: urls[0]}
		if len(urls) > 1 {
			video.Thumbnail = &urls[1]
		}
		return v.db.WithContext(rctx).Create(&video).Error
	})
	if err != nil {
		formFailed(ctx, err, "Failed to upload video.")
		return
	}
	utils.Logger.Info("video saved", zap.Uint("id", video.ID), zap.String("url", video.URL))
	formDone(ctx, http.StatusCreated, "Video uploaded successfully!", video)
}

// UpdateVideo replaces the title and description, and the video or thumbnail file when a new one is sent.
func (v *VideoController) UpdateVideo(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		formFailed(ctx, attachments.ErrNotFound, "Failed to update video.")
		return
	}
	rctx := ctx.Request.Context()
	var video models.Video
	if err := v.db.WithContext(rctx).First(&video, id).Error; err != nil {
		formFailed(ctx, err, "Failed to update video.")
		return
	}

	form, items, errs := v.bind(ctx, false)
	if len(errs) > 0 {
		formInvalid(ctx, errs)
		return
	}

	var obsolete []string
	for _, it := range items {
		switch it.Prefix {
		case storage.PrefixVideos:
			obsolete = append(obsolete, video.URL)
		case storage.PrefixThumbnails:
			if video.Thumbnail != nil {
				obsolete = append(obsolete, *video.Thumbnail)
			}
		}
	}

	_, err := v.reconciler.Replace(rctx, items, obsolete, func(urls []string) error {
		video.Title = form.Title
		video.Description = optional(form.Description)
		for i, it := range items {
			url := urls[i]
			if it.Prefix == storage.PrefixVideos {
				video.URL = url
			} else {
				video.Thumbnail = &url
			}
		}
		tx := v.db.WithContext(rctx).Model(&video).
			Select("Title", "Description", "URL", "Thumbnail", "UpdatedAt").
			Updates(&video)
		return rowsOrNotFound(tx)
	})
	if err != nil {
		formFailed(ctx, err, "Failed to update video.")
		return
	}
	formDone(ctx, http.StatusOK, "Video updated successfully!", video)
}

// DeleteVideo removes the record first, then its files. File failures are queued for retry.
func (v *VideoController) DeleteVideo(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		formFailed(ctx, attachments.ErrNotFound, "Failed to delete video.")
		return
	}
	rctx := ctx.Request.Context()
	var video models.Video
	if err := v.db.WithContext(rctx).First(&video, id).Error; err != nil {
		formFailed(ctx, err, "Failed to delete video.")
		return
	}
	if err := rowsOrNotFound(v.db.WithContext(rctx).Delete(&models.Video{}, video.ID)); err != nil {
		formFailed(ctx, err, "Failed to delete video.")
		return
	}

	urls := []string{video.URL}
	if video.Thumbnail != nil {
		urls = append(urls, *video.Thumbnail)
	}
	v.reconciler.Remove(rctx, urls, attachments.ReasonRemoved)
	formDone(ctx, http.StatusOK, "Video deleted successfully!", nil)
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// formDone answers a form-style action. App and API callers get JSON; browsers get a flash and a redirect.
func formDone(ctx *gin.Context, status int, msg string, data interface{}) {
	if utils.WantsJSON(ctx) {
		utils.Respond(ctx, status, utils.CodeOK, msg, data)
		return
	}
	session.Default(ctx).Flash("success", msg)
	ctx.Redirect(http.StatusSeeOther, VideoManagementPath)
}

func formInvalid(ctx *gin.Context, errs validation.Errors) {
	if utils.WantsJSON(ctx) {
		utils.ValidationFailed(ctx, errs)
		return
	}
	session.Default(ctx).Flash("error", strings.Join(errs.Messages(), " "))
	ctx.Redirect(http.StatusSeeOther, VideoManagementPath)
}

func formFailed(ctx *gin.Context, err error, msg string) {
	if utils.WantsJSON(ctx) {
		respondError(ctx, err, msg, "Video not found")
		return
	}
	if isNotFound(err) {
		msg = "Video not found."
	} else {
		utils.Logger.Error(msg, zap.String("path", ctx.Request.URL.Path), zap.Error(err))
	}
	session.Default(ctx).Flash("error", msg)
	ctx.Redirect(http.StatusSeeOther, VideoManagementPath)
}
