package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes are the HTTP status followed by two digits.
const (
	CodeOK             = 0
	CodeBadRequest     = 40001
	CodeUnauthorized   = 40101
	CodeBadCredentials = 40102
	CodeForbidden      = 40301
	CodeNotFound       = 40401
	CodeValidation     = 42201
	CodeTooMany        = 42901
	CodeInternal       = 50001
	CodeStorage        = 50002
	CodePersistence    = 50003
)

// MsgInternal is the only message a 500 response ever carries.
const MsgInternal = "Something went wrong. Please try again."

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, CodeOK, "success", data)
}

// Message is a 200 carrying a human message, with optional data.
func Message(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusOK, CodeOK, message, data)
}

// Created is a 201 for freshly created resources.
func Created(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, http.StatusCreated, CodeOK, message, data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail is an error response with a short client-safe error summary.
func Fail(ctx *gin.Context, status int, code int, message, errText string) {
	ctx.JSON(status, JSONResponse{Code: code, Message: message, Error: errText})
}

// ValidationFailed answers 422 with every failing field.
func ValidationFailed(ctx *gin.Context, errs map[string]string) {
	ctx.JSON(http.StatusUnprocessableEntity, JSONResponse{
		Code:    CodeValidation,
		Message: "The given data was invalid.",
		Errors:  errs,
	})
}

// WantsJSON reports whether the caller expects a JSON body rather than a page or redirect.
func WantsJSON(ctx *gin.Context) bool {
	if ctx.GetHeader("X-Inertia") == "true" || ctx.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return ctx.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
