package usecase

import (
	"context"
	"errors"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Hasher interface {
	Compare(hashed, password string) bool
}

type JWTProvider interface {
	Generate(tokenType domain.TokenType, userID uint, sessionID string) (string, error)
	RefreshTokenExpiresIn() time.Duration
}

type UserRepository interface {
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
}

type authUsecase struct {
	sessionRepo domain.UserSessionRepository
	userRepo    UserRepository
	jwtProvider JWTProvider
	hasher      Hasher
	logger      log.Logger
}

func NewAuthUsecase(
	sessionRepo domain.UserSessionRepository,
	userRepo UserRepository,
	jwtProvider JWTProvider,
	hasher Hasher,
	logger log.Logger,
) domain.AuthUsecase {
	return &authUsecase{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		jwtProvider: jwtProvider,
		hasher:      hasher,
		logger:      logger,
	}
}

// Login checks the credentials of a non-trashed user and opens a session.
func (a *authUsecase) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	user, err := a.userRepo.FindOne(ctx, &domain.UserFilter{Email: &email}, &domain.FindOneOption{
		Preloads: []string{"Roles"},
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	if !a.hasher.Compare(user.Password, req.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	refreshToken, err := a.jwtProvider.Generate(domain.TokenTypeRefresh, 0, "")
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	now := time.Now()
	session := &domain.UserSession{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		RefreshToken:   refreshToken,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		Active:         true,
		ExpiresAt:      now.Add(a.jwtProvider.RefreshTokenExpiresIn()).UnixMilli(),
		LastActivityAt: now.UnixMilli(),
	}
	if err := a.sessionRepo.Create(ctx, session); err != nil {
		return nil, domain.ErrCannotCreateSession.WithWrap(err)
	}

	accessToken, err := a.jwtProvider.Generate(domain.TokenTypeAccess, user.ID, session.ID)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	a.logger.InfoContext(ctx, "User logged in",
		log.Int64("user_id", int64(user.ID)),
		log.String("session_id", session.ID),
	)
	return &domain.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (a *authUsecase) Logout(ctx context.Context, sessionID string) error {
	session, err := a.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrSessionExpired
		}
		return domain.ErrInternalServerError.WithWrap(err)
	}
	if !session.Active {
		return nil
	}

	session.Active = false
	session.RefreshToken = ""
	if err := a.sessionRepo.Update(ctx, session); err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}
	return nil
}

// RefreshToken rotates the refresh token of an active session. A refresh
// token is accepted once.
func (a *authUsecase) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	// ended sessions keep an empty refresh token
	if req.RefreshToken == "" {
		return nil, domain.ErrInvalidToken.WithError("Invalid refresh token")
	}

	session, err := a.sessionRepo.FindByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrInvalidToken.WithError("Invalid refresh token")
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	if !session.IsActive() {
		return nil, domain.ErrSessionExpired
	}

	user, err := a.userRepo.FindOne(ctx, &domain.UserFilter{ID: &session.UserID}, &domain.FindOneOption{
		Preloads: []string{"Roles"},
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	newRefreshToken, err := a.jwtProvider.Generate(domain.TokenTypeRefresh, 0, "")
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	session.RefreshToken = newRefreshToken
	session.LastActivityAt = time.Now().UnixMilli()
	if req.IPAddress != "" {
		session.IPAddress = req.IPAddress
	}
	if req.UserAgent != "" {
		session.UserAgent = req.UserAgent
	}
	if err := a.sessionRepo.Update(ctx, session); err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	accessToken, err := a.jwtProvider.Generate(domain.TokenTypeAccess, user.ID, session.ID)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	return &domain.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}
