package common

import (
	"net"
	"rbac-admin/domain"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey      = "auth_user"
	SessionIDContextKey = "auth_session_id"
	RequestIDContextKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// ExtractClientInfo extracts client information from the Gin context
func ExtractClientInfo(c *gin.Context) *ClientInfo {
	return &ClientInfo{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: GetClientIP(c),
	}
}

// GetClientIP gets the real client IP address
func GetClientIP(c *gin.Context) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip != "" && net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}

	remoteIP, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return remoteIP
}

// PopulateClientInfo fills empty client info fields with extracted values
func PopulateClientInfo(c *gin.Context, ipAddress, userAgent *string) {
	clientInfo := ExtractClientInfo(c)

	if ipAddress != nil && *ipAddress == "" {
		*ipAddress = clientInfo.IPAddress
	}
	if userAgent != nil && *userAgent == "" {
		*userAgent = clientInfo.UserAgent
	}
}

func GetUserFromCtx(c *gin.Context) *domain.User {
	if v, ok := c.Get(UserContextKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

func GetSessionIDFromCtx(c *gin.Context) string {
	return c.GetString(SessionIDContextKey)
}

func GetRequestIDFromCtx(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// ParseIDParam reads a positive numeric path parameter.
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrBadRequest.WithErrorf("Invalid %s: %q", name, raw)
	}
	return uint(id), nil
}
