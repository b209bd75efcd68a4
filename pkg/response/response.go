package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 502)
	Code       int    // Application-level error code
	Kind       string // Machine-readable error kind, e.g. "validation_error"
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, kind, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Kind: kind, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return newAppError(http.StatusBadRequest, "validation_error", msg)
}

func NewUnknownReviewer(msg string) *AppError {
	return newAppError(http.StatusForbidden, "unknown_reviewer", msg)
}

func NewNotFound(msg string) *AppError {
	return newAppError(http.StatusNotFound, "not_found", msg)
}

func NewConflict(kind, msg string) *AppError {
	return newAppError(http.StatusConflict, kind, msg)
}

func NewAgentFailure(msg string) *AppError {
	return newAppError(http.StatusBadGateway, "agent_call_failure", msg)
}

func NewServerError(msg string) *AppError {
	return newAppError(http.StatusInternalServerError, "internal_error", msg)
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Accepted sends a 202 response for work handed to the background queue.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Code:    0,
		Message: "accepted",
		Data:    data,
	})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise a generic 500 is returned without leaking err's text.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Kind:    appErr.Kind,
			Message: appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    500,
		Kind:    "internal_error",
		Message: "internal server error",
	})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, NewValidationError(msg))
}

func NotFound(c *gin.Context, msg string) {
	Error(c, NewNotFound(msg))
}

func ServerError(c *gin.Context, msg string) {
	Error(c, NewServerError(msg))
}
