package usecase

import (
	"context"
	"errors"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"
	"strings"
)

type MediaLibrary interface {
	AttachToCollection(ctx context.Context, owner domain.MediaOwner, collection string, file *domain.UploadFile) (*domain.Media, error)
	ClearCollection(ctx context.Context, owner domain.MediaOwner, collection string) error
	URLs(ctx context.Context, owner domain.MediaOwner, collection string) (map[string]string, error)
}

type tokenUsecase struct {
	repo   domain.TokenRepository
	media  MediaLibrary
	logger log.Logger
}

func NewTokenUsecase(repo domain.TokenRepository, media MediaLibrary, logger log.Logger) domain.TokenUsecase {
	return &tokenUsecase{
		repo:   repo,
		media:  media,
		logger: logger,
	}
}

func (u *tokenUsecase) ListTokens(ctx context.Context, query *domain.TokenListQuery) (*domain.Page[*domain.Token], error) {
	if query == nil {
		query = &domain.TokenListQuery{}
	}
	query.Normalize()

	filter := &domain.TokenFilter{}
	if search := strings.TrimSpace(query.Search); search != "" {
		filter.SearchTerm = &search
	}
	if query.Status != "" {
		status := domain.TokenStatus(query.Status)
		if !status.IsValid() {
			return nil, domain.FieldError("status", "The selected status is invalid.")
		}
		filter.Status = &status
	}
	if query.Network != "" {
		filter.Network = &query.Network
	}

	tokens, pagination, err := u.repo.FindPage(ctx, filter, &domain.FindPageOption{
		Sort:    []string{"tokens.id DESC"},
		Page:    query.Page,
		PerPage: query.PerPage,
	})
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	for _, token := range tokens {
		u.attachImages(ctx, token)
	}
	return domain.NewPage(tokens, pagination), nil
}

func (u *tokenUsecase) GetToken(ctx context.Context, id uint) (*domain.Token, error) {
	token, err := u.repo.FindByID(ctx, id, nil)
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load token"))
	}
	u.attachImages(ctx, token)
	return token, nil
}

func (u *tokenUsecase) CreateToken(ctx context.Context, owner *domain.User, req *domain.TokenRequest) (*domain.Token, error) {
	if owner == nil {
		return nil, domain.ErrUnauthorized.WithReason("token owner is required")
	}

	token := &domain.Token{UserID: owner.ID}
	applyRequest(token, req)
	if token.Status == "" {
		token.Status = domain.TokenStatusDraft
	}

	if err := u.repo.Create(ctx, token); err != nil {
		return nil, u.mapError(err, domain.ErrTokenSaveFailed)
	}

	u.logger.InfoContext(ctx, "Token created",
		log.Int64("token_id", int64(token.ID)), log.Int64("user_id", int64(owner.ID)))
	return token, nil
}

func (u *tokenUsecase) UpdateToken(ctx context.Context, id uint, req *domain.TokenRequest) (*domain.Token, error) {
	token, err := u.repo.FindByID(ctx, id, nil)
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load token"))
	}

	status := token.Status
	applyRequest(token, req)
	if token.Status == "" {
		token.Status = status
	}

	if err := u.repo.Update(ctx, token); err != nil {
		return nil, u.mapError(err, domain.ErrTokenSaveFailed)
	}
	u.attachImages(ctx, token)
	return token, nil
}

func (u *tokenUsecase) DeleteTokens(ctx context.Context, ids domain.BulkIDs) (*domain.BulkResult, error) {
	outcome := domain.BulkOutcome{Requested: len(ids)}
	if len(ids) == 0 {
		return domain.SummarizeBulk(domain.BulkEntityToken, domain.BulkActionDelete, outcome), nil
	}

	affected, err := u.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	outcome.Affected = int(affected)

	for _, id := range ids {
		owner := domain.MediaOwner{Type: domain.MediaOwnerToken, ID: id}
		if err := u.media.ClearCollection(ctx, owner, domain.MediaCollectionMeme); err != nil {
			u.logger.WarnContext(ctx, "Failed to clear token image", log.Int64("token_id", int64(id)), log.Error(err))
		}
	}
	return domain.SummarizeBulk(domain.BulkEntityToken, domain.BulkActionDelete, outcome), nil
}

func (u *tokenUsecase) UploadImage(ctx context.Context, id uint, file *domain.UploadFile) (*domain.Token, error) {
	if file == nil {
		return nil, domain.ErrMediaFileRequired
	}
	if !file.IsImage() {
		return nil, domain.ErrMediaInvalidType
	}

	token, err := u.repo.FindByID(ctx, id, nil)
	if err != nil {
		return nil, u.mapError(err, domain.ErrInternalServerError.WithError("Failed to load token"))
	}

	owner := domain.MediaOwner{Type: domain.MediaOwnerToken, ID: token.ID}
	if _, err := u.media.AttachToCollection(ctx, owner, domain.MediaCollectionMeme, file); err != nil {
		return nil, err
	}
	u.attachImages(ctx, token)
	return token, nil
}

func applyRequest(token *domain.Token, req *domain.TokenRequest) {
	token.Name = strings.TrimSpace(req.Name)
	token.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	token.Decimal = req.Decimal
	token.Supply = strings.TrimSpace(req.Supply)
	token.Description = req.Description
	token.WebsiteURL = req.WebsiteURL
	token.TwitterURL = req.TwitterURL
	token.TelegramURL = req.TelegramURL
	token.DiscordURL = req.DiscordURL
	token.WalletAddress = req.WalletAddress
	token.IsFrozen = req.IsFrozen
	token.IsMintRevoked = req.IsMintRevoked
	token.Status = req.Status
	token.Network = req.Network
}

func (u *tokenUsecase) attachImages(ctx context.Context, token *domain.Token) {
	if u.media == nil {
		return
	}
	owner := domain.MediaOwner{Type: domain.MediaOwnerToken, ID: token.ID}
	urls, err := u.media.URLs(ctx, owner, domain.MediaCollectionMeme)
	if err != nil {
		u.logger.WarnContext(ctx, "Failed to resolve token images", log.Int64("token_id", int64(token.ID)), log.Error(err))
		return
	}
	if len(urls) > 0 {
		token.Images = domain.JSONB(urls)
	}
}

func (u *tokenUsecase) mapError(err error, fallback *domain.DetailedError) error {
	var de *domain.DetailedError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrTokenNotFound.WithWrap(err)
	}
	return fallback.WithWrap(err)
}
