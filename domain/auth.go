package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/****************************
*        Auth errors        *
****************************/
var (
	ErrInvalidCredentials = &DetailedError{
		IDField:         "INVALID_CREDENTIALS",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "These credentials do not match our records.",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrInvalidToken = &DetailedError{
		IDField:         "INVALID_TOKEN",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid or expired token",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrSessionExpired = &DetailedError{
		IDField:         "SESSION_EXPIRED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Session has expired",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrCannotCreateSession = &DetailedError{
		IDField:         "CANNOT_CREATE_SESSION",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create session",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*       Auth entities and types       *
***************************************/
type TokenType int

const (
	TokenTypeAccess TokenType = iota
	TokenTypeRefresh
)

type JwtClaims struct {
	Sub uint   `json:"sub_id"` // User ID
	Sid string `json:"sid"`    // Session ID
	jwt.RegisteredClaims
}

type UserSession struct {
	ID             string `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID         uint   `json:"user_id" gorm:"index;not null"`
	RefreshToken   string `json:"-" gorm:"type:varchar(128);index"`
	IPAddress      string `json:"ip_address" gorm:"type:varchar(64)"`
	UserAgent      string `json:"user_agent" gorm:"type:text"`
	Active         bool   `json:"active"`
	ExpiresAt      int64  `json:"expires_at"`
	LastActivityAt int64  `json:"last_activity_at"`
	CreatedAt      int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt      int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
}

func (s *UserSession) IsActive() bool {
	return s.Active && (s.ExpiresAt == 0 || s.ExpiresAt > time.Now().UnixMilli())
}

type UserSessionFilter struct {
	ID           *string `json:"id,omitempty"`
	UserID       *uint   `json:"user_id,omitempty"`
	UserIDIn     []uint  `json:"user_id_in,omitempty"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	Active       *bool   `json:"is_active,omitempty"`
}

/*************************************
*  Auth usecase interfaces and types *
**************************************/
type AuthUsecase interface {
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error)
}

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserSessionRepository stores login sessions. Sessions are keyed by a uuid.
type UserSessionRepository interface {
	Create(ctx context.Context, session *UserSession) error
	FindByID(ctx context.Context, sessionID string) (*UserSession, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*UserSession, error)
	Update(ctx context.Context, session *UserSession) error
	DeactivateByUserIDs(ctx context.Context, userIDs []uint) (int64, error)
}
