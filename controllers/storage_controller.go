package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/praxxy/backoffice/storage"
	"github.com/praxxy/backoffice/utils"
)

// StorageController streams public blobs.
type StorageController struct {
	store storage.BlobStore
}

// NewStorageController creates a new StorageController instance.
func NewStorageController(store storage.BlobStore) *StorageController {
	return &StorageController{store: store}
}

// Serve answers GET /storage/*path.
func (s *StorageController) Serve(ctx *gin.Context) {
	key, err := storage.CleanKey(strings.TrimPrefix(ctx.Param("path"), "/"))
	if err != nil {
		ctx.String(http.StatusNotFound, "not found")
		return
	}
	obj, err := s.store.Get(ctx.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			ctx.String(http.StatusNotFound, "not found")
			return
		}
		utils.Logger.Error("read blob failed", zap.String("key", key), zap.Error(err))
		ctx.String(http.StatusInternalServerError, utils.MsgInternal)
		return
	}
	defer obj.Body.Close()

	ctx.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
