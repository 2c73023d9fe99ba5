// Package httpx holds the gin response helpers shared by the delivery packages.
package httpx

import (
	"net/http"
	"strconv"

	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is the envelope for paginated listings
type Page struct {
	Count    int64       `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}

// Pagination is the parsed page/page_size query
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePagination reads page and page_size. page_size is capped at MaxPageSize.
func ParsePagination(c *gin.Context) (Pagination, error) {
	p := Pagination{Page: 1, PageSize: DefaultPageSize}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, apperror.Validation("invalid page %q", raw)
		}
		p.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, apperror.Validation("invalid page_size %q", raw)
		}
		p.PageSize = min(n, MaxPageSize)
	}
	return p, nil
}

// NewPage wraps a result slice.
func NewPage(p Pagination, count int64, results interface{}) Page {
	return Page{Count: count, Page: p.Page, PageSize: p.PageSize, Results: results}
}

// Error writes err as {"error": message} with the status of its code.
// Internal errors are logged and their detail hidden.
func Error(c *gin.Context, log *zap.Logger, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		logger.FromContext(c.Request.Context(), log).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": apperror.PublicMessage(err)})
}

// BindError reports a request body that failed to bind.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

const RequestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id and stores it on the request
// context for logger.FromContext.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
