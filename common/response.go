package common

import (
	"fmt"
	"net/http"
	"rbac-admin/domain"
	"time"

	"github.com/gin-gonic/gin"
)

type ResponseT[T any] struct {
	Status      int    `json:"status"`
	Code        string `json:"code"`
	Data        T      `json:"data"`
	Description string `json:"description"`
}

var logger Logger

// SetLogger sets the logger for response logging
func SetLogger(l Logger) {
	logger = l
}

func Response[T any](c *gin.Context, status int, code string, data T, desc string) {
	if status >= 400 && logger != nil {
		logger.Error("API Error",
			"status", status,
			"code", code,
			"description", desc,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", GetRequestIDFromCtx(c),
		)
	}

	c.AbortWithStatusJSON(status, ResponseT[T]{
		Status:      status,
		Code:        code,
		Data:        data,
		Description: desc,
	})
}

// Success responses
func ResponseOK[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusOK, "SUCCESS", data, desc)
}

func ResponseCreated[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusCreated, "SUCCESS", data, desc)
}

func ResponseForbidden(c *gin.Context, desc string) {
	ResponseError(c, domain.ErrForbidden.WithReason(desc))
}

// ResponseError renders any error in the response envelope. Validation errors
// carry their field map as data.
func ResponseError(c *gin.Context, err error) {
	dErr := domain.AsDetailedError(err)
	if rid := GetRequestIDFromCtx(c); rid != "" {
		dErr = dErr.WithRequestID(rid)
	}
	if dErr.StatusCode() >= http.StatusInternalServerError && logger != nil {
		logger.Error("Unhandled error", "error", fmt.Sprintf("%+v", dErr))
	}

	var data any
	if len(dErr.DetailsField) > 0 {
		data = dErr.DetailsField
	}
	Response(c, dErr.StatusCode(), dErr.IDField, data, dErr.ErrorField)
}

// ResponseBulk renders a bulk outcome and counts it. A result that is not a
// success is still a 200, rows may have been committed.
func ResponseBulk(c *gin.Context, entity domain.BulkEntity, action domain.BulkAction, result *domain.BulkResult) {
	recordBulk(entity, action, result)

	code := "SUCCESS"
	if !result.Success {
		code = "BULK_REJECTED"
	}
	Response(c, http.StatusOK, code, result, result.Message)
}

func ResponseRateLimitExceeded(c *gin.Context, desc string, retryAt time.Time) {
	retryAfterSeconds := int64(0)
	retryAtISO := ""

	if !retryAt.IsZero() {
		retryAfterSeconds = int64(time.Until(retryAt).Seconds())
		if retryAfterSeconds > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds))
		}
		retryAtISO = retryAt.Format(time.RFC3339)
	}

	Response(c, http.StatusTooManyRequests, domain.ErrTooManyRequests.IDField, map[string]interface{}{
		"retry_at":            retryAtISO,
		"retry_after_seconds": retryAfterSeconds,
	}, desc)
}
