package domain

import (
	"context"
	"net/http"
)

/****************************
*        Token errors       *
****************************/
var (
	ErrTokenNotFound = &DetailedError{
		IDField:         "TOKEN_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Token not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrTokenSaveFailed = &DetailedError{
		IDField:         "TOKEN_SAVE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to save token",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*       Token entities and types      *
***************************************/
type TokenStatus string

const (
	TokenStatusDraft   TokenStatus = "draft"
	TokenStatusPending TokenStatus = "pending"
	TokenStatusActive  TokenStatus = "active"
	TokenStatusFailed  TokenStatus = "failed"
)

func (s TokenStatus) IsValid() bool {
	switch s {
	case TokenStatusDraft, TokenStatusPending, TokenStatusActive, TokenStatusFailed:
		return true
	default:
		return false
	}
}

// Token is a user created crypto asset listing.
type Token struct {
	SQLModel
	UserID        uint        `json:"user_id" gorm:"index;not null"`
	Name          string      `json:"name" gorm:"type:varchar(255);not null"`
	Symbol        string      `json:"symbol" gorm:"type:varchar(32);not null"`
	Decimal       uint8       `json:"decimal" gorm:"not null"`
	Supply        string      `json:"supply" gorm:"type:varchar(78);not null"`
	Description   string      `json:"description" gorm:"type:text"`
	WebsiteURL    string      `json:"website_url" gorm:"type:varchar(255)"`
	TwitterURL    string      `json:"twitter_url" gorm:"type:varchar(255)"`
	TelegramURL   string      `json:"telegram_url" gorm:"type:varchar(255)"`
	DiscordURL    string      `json:"discord_url" gorm:"type:varchar(255)"`
	WalletAddress string      `json:"wallet_address" gorm:"type:varchar(128)"`
	IsFrozen      bool        `json:"is_frozen" gorm:"not null;default:false"`
	IsMintRevoked bool        `json:"is_mint_revoked" gorm:"not null;default:false"`
	Status        TokenStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	Network       string      `json:"network" gorm:"type:varchar(50);not null"`
	Images        JSONB       `json:"images,omitempty" gorm:"-"`
}

type TokenFilter struct {
	ID         *uint        `json:"id" form:"id"`
	IDIn       []uint       `json:"id_in" form:"id_in"`
	UserID     *uint        `json:"user_id" form:"user_id"`
	Status     *TokenStatus `json:"status" form:"status"`
	Network    *string      `json:"network" form:"network"`
	SearchTerm *string      `json:"search_term" form:"search_term"`
}

/**********************************************
*       Token usecase interfaces and types    *
**********************************************/
type TokenUsecase interface {
	ListTokens(ctx context.Context, query *TokenListQuery) (*Page[*Token], error)
	GetToken(ctx context.Context, id uint) (*Token, error)
	CreateToken(ctx context.Context, owner *User, req *TokenRequest) (*Token, error)
	UpdateToken(ctx context.Context, id uint, req *TokenRequest) (*Token, error)
	DeleteTokens(ctx context.Context, ids BulkIDs) (*BulkResult, error)
	UploadImage(ctx context.Context, id uint, file *UploadFile) (*Token, error)
}

type TokenListQuery struct {
	ListQuery
	Status  string `form:"status"`
	Network string `form:"network"`
}

type TokenRequest struct {
	Name          string      `json:"name" binding:"required,max=255"`
	Symbol        string      `json:"symbol" binding:"required,max=32"`
	Decimal       uint8       `json:"decimal" binding:"max=18"`
	Supply        string      `json:"supply" binding:"required,numeric,max=78"`
	Description   string      `json:"description" binding:"max=5000"`
	WebsiteURL    string      `json:"website_url" binding:"omitempty,url,max=255"`
	TwitterURL    string      `json:"twitter_url" binding:"omitempty,url,max=255"`
	TelegramURL   string      `json:"telegram_url" binding:"omitempty,url,max=255"`
	DiscordURL    string      `json:"discord_url" binding:"omitempty,url,max=255"`
	WalletAddress string      `json:"wallet_address" binding:"omitempty,max=128"`
	IsFrozen      bool        `json:"is_frozen"`
	IsMintRevoked bool        `json:"is_mint_revoked"`
	Status        TokenStatus `json:"status" binding:"omitempty,token_status"`
	Network       string      `json:"network" binding:"required,max=50"`
}

type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	FindByID(ctx context.Context, id uint, option *FindOneOption) (*Token, error)
	FindMany(ctx context.Context, filter *TokenFilter, option *FindManyOption) ([]*Token, error)
	FindPage(ctx context.Context, filter *TokenFilter, option *FindPageOption) ([]*Token, *Pagination, error)
	Update(ctx context.Context, token *Token) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}
