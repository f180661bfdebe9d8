package usecase

import (
	"context"
	"rbac-admin/database"
	"rbac-admin/domain"
	"rbac-admin/modules/token/repository"
	"rbac-admin/pkg/log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	attached map[uint]string
	cleared  []uint
}

func (m *fakeMedia) AttachToCollection(_ context.Context, owner domain.MediaOwner, _ string, file *domain.UploadFile) (*domain.Media, error) {
	if m.attached == nil {
		m.attached = map[uint]string{}
	}
	m.attached[owner.ID] = file.Name
	return &domain.Media{ModelType: owner.Type, ModelID: owner.ID, FileName: file.Name}, nil
}

func (m *fakeMedia) ClearCollection(_ context.Context, owner domain.MediaOwner, _ string) error {
	m.cleared = append(m.cleared, owner.ID)
	delete(m.attached, owner.ID)
	return nil
}

func (m *fakeMedia) URLs(_ context.Context, owner domain.MediaOwner, _ string) (map[string]string, error) {
	name, ok := m.attached[owner.ID]
	if !ok {
		return map[string]string{}, nil
	}
	return map[string]string{"preview": "/uploads/" + name}, nil
}

func setup(t *testing.T) (domain.TokenUsecase, *fakeMedia) {
	t.Helper()
	db, err := database.OpenInMemory(log.NewNopLogger())
	require.NoError(t, err)
	media := &fakeMedia{}
	return NewTokenUsecase(repository.NewTokenRepository(db), media, log.NewNopLogger()), media
}

func tokenRequest(name, symbol string) *domain.TokenRequest {
	return &domain.TokenRequest{
		Name:    name,
		Symbol:  symbol,
		Decimal: 0,
		Supply:  "1000000000",
		Network: "solana",
	}
}

func TestCreateTokenDefaults(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	token, err := uc.CreateToken(ctx, &domain.User{SQLModel: domain.SQLModel{ID: 5}}, tokenRequest(" Doge Coin ", "doge"))
	require.NoError(t, err)
	assert.Equal(t, "Doge Coin", token.Name)
	assert.Equal(t, "DOGE", token.Symbol)
	assert.Equal(t, domain.TokenStatusDraft, token.Status)
	assert.Equal(t, uint(5), token.UserID)

	got, err := uc.GetToken(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), got.Decimal)

	_, err = uc.CreateToken(ctx, nil, tokenRequest("x", "x"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListTokensFiltersAndSearches(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()
	owner := &domain.User{SQLModel: domain.SQLModel{ID: 1}}

	for _, req := range []*domain.TokenRequest{
		tokenRequest("Alpha", "alp"),
		tokenRequest("Beta", "bet"),
		tokenRequest("100%_Gamma", "gam"),
	} {
		_, err := uc.CreateToken(ctx, owner, req)
		require.NoError(t, err)
	}
	active := tokenRequest("Delta", "del")
	active.Status = domain.TokenStatusActive
	_, err := uc.CreateToken(ctx, owner, active)
	require.NoError(t, err)

	page, err := uc.ListTokens(ctx, &domain.TokenListQuery{ListQuery: domain.ListQuery{PerPage: 999, Page: -3}})
	require.NoError(t, err)
	assert.Len(t, page.Data, 4)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, "Delta", page.Data[0].Name)

	page, err = uc.ListTokens(ctx, &domain.TokenListQuery{ListQuery: domain.ListQuery{Search: "%_"}})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "100%_Gamma", page.Data[0].Name)

	page, err = uc.ListTokens(ctx, &domain.TokenListQuery{Status: "active"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "DEL", page.Data[0].Symbol)

	_, err = uc.ListTokens(ctx, &domain.TokenListQuery{Status: "burned"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateTokenKeepsStatusWhenOmitted(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	req := tokenRequest("Alpha", "alp")
	req.Status = domain.TokenStatusPending
	token, err := uc.CreateToken(ctx, &domain.User{SQLModel: domain.SQLModel{ID: 1}}, req)
	require.NoError(t, err)

	updated, err := uc.UpdateToken(ctx, token.ID, tokenRequest("Alpha Two", "alp2"))
	require.NoError(t, err)
	assert.Equal(t, "Alpha Two", updated.Name)
	assert.Equal(t, domain.TokenStatusPending, updated.Status)

	_, err = uc.UpdateToken(ctx, 999, tokenRequest("x", "x"))
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestUploadImageAndDeleteTokens(t *testing.T) {
	uc, media := setup(t)
	ctx := context.Background()
	owner := &domain.User{SQLModel: domain.SQLModel{ID: 1}}

	a, err := uc.CreateToken(ctx, owner, tokenRequest("Alpha", "alp"))
	require.NoError(t, err)
	b, err := uc.CreateToken(ctx, owner, tokenRequest("Beta", "bet"))
	require.NoError(t, err)

	_, err = uc.UploadImage(ctx, a.ID, &domain.UploadFile{Name: "a.txt", Mime: "text/plain"})
	assert.ErrorIs(t, err, domain.ErrMediaInvalidType)

	withImage, err := uc.UploadImage(ctx, a.ID, &domain.UploadFile{Name: "logo.png", Mime: "image/png", Content: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/logo.png", withImage.Images["preview"])

	res, err := uc.DeleteTokens(ctx, domain.BulkIDs{a.ID})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Token deleted successfully.", res.Message)
	assert.Equal(t, []uint{a.ID}, media.cleared)

	res, err = uc.DeleteTokens(ctx, domain.BulkIDs{b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)

	res, err = uc.DeleteTokens(ctx, domain.BulkIDs{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No tokens selected for deletion.", res.Message)
}
