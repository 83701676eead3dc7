package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/attachments"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
)

// pageSize is fixed for every listing in the back-office.
const pageSize = 10

func parsePage(pageStr string) int {
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		return p
	}
	return 1
}

func paginated(items interface{}, page int, total int64) gin.H {
	return gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
}

func parseID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// formFiles returns the uploads sent as name or name[].
func formFiles(ctx *gin.Context, name string) []*multipart.FileHeader {
	form, err := ctx.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File[name]...)
	return append(files, form.File[name+"[]"]...)
}

// formFile returns the single upload under name, or nil.
func formFile(ctx *gin.Context, name string) *multipart.FileHeader {
	if files := formFiles(ctx, name); len(files) > 0 {
		return files[0]
	}
	return nil
}

// formValues returns the values sent as name or name[].
func formValues(ctx *gin.Context, name string) []string {
	values := append([]string{}, ctx.PostFormArray(name)...)
	return utils.UniqueStrings(append(values, ctx.PostFormArray(name+"[]")...))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, attachments.ErrNotFound)
}

// respondError maps the error taxonomy onto JSON responses. Internal details are only logged.
func respondError(ctx *gin.Context, err error, failMsg, notFoundMsg string) {
	var verrs validation.Errors
	var serr *attachments.StorageError
	var perr *attachments.PersistenceError
	switch {
	case errors.As(err, &verrs):
		utils.ValidationFailed(ctx, verrs)
	case isNotFound(err):
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, notFoundMsg)
	case errors.As(err, &serr):
		utils.Logger.Error(failMsg, zap.String("path", ctx.Request.URL.Path), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.CodeStorage, failMsg, utils.MsgInternal)
	case errors.As(err, &perr):
		utils.Logger.Error(failMsg, zap.String("path", ctx.Request.URL.Path), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.CodePersistence, failMsg, utils.MsgInternal)
	default:
		utils.Logger.Error(failMsg, zap.String("path", ctx.Request.URL.Path), zap.Error(err))
		utils.Fail(ctx, http.StatusInternalServerError, utils.CodeInternal, failMsg, utils.MsgInternal)
	}
}

// rowsOrNotFound turns an update that matched nothing into attachments.ErrNotFound.
func rowsOrNotFound(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return attachments.ErrNotFound
	}
	return nil
}
