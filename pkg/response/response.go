package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API envelope.
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Details  interface{} `json:"details,omitempty"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// AppError represents a structured application error with HTTP status.
type AppError struct {
	HTTPStatus int         // HTTP status code (e.g. 400, 404, 500)
	Message    string      // Human-readable error message
	Details    interface{} // Optional structured detail (violated fields, conflicting record)
}

func (e *AppError) Error() string {
	return e.Message
}

// WithDetails returns a copy of the error carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg}
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessWithMeta sends a 200 OK response with data and metadata.
func SuccessWithMeta(c *gin.Context, data, metadata interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Metadata: metadata})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Error sends an error response. If err is an *AppError, its status and details
// are used; otherwise a 500 echoing the error message is returned.
func Error(c *gin.Context, err error) {
	ErrorWithMeta(c, err, nil)
}

// ErrorWithMeta is Error with a metadata block attached.
func ErrorWithMeta(c *gin.Context, err error, metadata interface{}) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Success:  false,
			Error:    appErr.Message,
			Details:  appErr.Details,
			Metadata: metadata,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Success:  false,
		Error:    err.Error(),
		Metadata: metadata,
	})
}

// Fail reports a server-action failure: HTTP 200 with success=false, the way
// action results are consumed by the frontend.
func Fail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Response{Success: false, Error: msg})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Error: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Error: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Error: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Error: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Error: msg})
}
