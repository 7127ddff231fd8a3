package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID  string      `json:"requestId"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c, nil),
	})
}

// SuccessWithPagination writes a success response with pagination metadata.
func SuccessWithPagination(c *gin.Context, code int, message string, data interface{}, page, limit, total int) {
	// safety defaults
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = catalogapi.DefaultLimit
	}
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta: newMeta(c, &Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: catalogapi.TotalPages(total, limit),
		}),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	writeError(c, code, &ErrorInfo{Code: errCode, Message: message})
}

// FieldErrors writes a 422 with per-field validation messages.
func FieldErrors(c *gin.Context, message string, fields map[string]string) {
	writeError(c, http.StatusUnprocessableEntity, &ErrorInfo{Code: "VALIDATION_FAILED", Message: message, Fields: fields})
}

// Redirect writes an error telling the browser where to navigate.
func Redirect(c *gin.Context, code int, errCode, message, to string) {
	writeError(c, code, &ErrorInfo{Code: errCode, Message: message, Redirect: to})
}

// UpstreamError maps a catalog API failure to a console response. API
// messages are passed through verbatim.
func UpstreamError(c *gin.Context, err error) {
	var apiErr *catalogapi.APIError
	switch catalogapi.KindOf(err) {
	case catalogapi.KindAPI:
		errors.As(err, &apiErr)
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		Error(c, status, "UPSTREAM_REJECTED", apiErr.Message)
	case catalogapi.KindNetwork:
		Error(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", catalogapi.UserMessage(err))
	case catalogapi.KindShape:
		Error(c, http.StatusBadGateway, "UPSTREAM_SHAPE", catalogapi.UserMessage(err))
	default:
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}

func writeError(c *gin.Context, code int, info *ErrorInfo) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: info.Message,
		Error:   info,
		Meta:    newMeta(c, nil),
	})
}

func newMeta(c *gin.Context, p *Pagination) Meta {
	return Meta{
		RequestID:  getRequestID(c),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Pagination: p,
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
