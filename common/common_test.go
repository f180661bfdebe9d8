package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"rbac-admin/domain"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status      int             `json:"status"`
	Code        string          `json:"code"`
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description"`
}

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestResponseErrorRendersValidationFields(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		ResponseError(c, domain.FieldError("name", domain.MessageNameTaken))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.MessageNameTaken, body.Description)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(body.Data, &fields))
	assert.Equal(t, domain.MessageNameTaken, fields["name"])
}

func TestResponseErrorWrapsUnknownErrors(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		ResponseError(c, errors.New("boom"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, domain.ErrInternalServerError.IDField, body.Code)
	assert.NotContains(t, body.Description, "boom")
}

func TestResponseBulkCountsOutcome(t *testing.T) {
	m := NewMetrics("test")
	SetMetrics(m)
	t.Cleanup(func() { SetMetrics(nil) })

	result := domain.SummarizeBulk(domain.BulkEntityRole, domain.BulkActionDelete,
		domain.BulkOutcome{Requested: 2, Affected: 1, Protected: []string{"super-admin"}})
	w, body := perform(t, func(c *gin.Context) {
		ResponseBulk(c, domain.BulkEntityRole, domain.BulkActionDelete, result)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BULK_REJECTED", body.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bulkTotal.WithLabelValues("roles", "delete", "rejected")))
}

func TestGRPCErrorRoundTrip(t *testing.T) {
	err := ToGRPCError(domain.FieldError("email", domain.MessageEmailTaken))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	de, ok := IsDetailError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, de.StatusCode())
	assert.Equal(t, domain.MessageEmailTaken, de.FieldErrors()["email"])
	assert.True(t, errors.Is(de, domain.ErrValidation))

	st, _ = status.FromError(ToGRPCError(domain.ErrUserNotFound))
	assert.Equal(t, codes.NotFound, st.Code())
}

type jwtConfig struct{}

func (jwtConfig) AccessTokenExpiresIn() time.Duration  { return time.Minute }
func (jwtConfig) AccessTokenSecret() string            { return "secret" }
func (jwtConfig) RefreshTokenExpiresIn() time.Duration { return time.Hour }
func (jwtConfig) TokenIssuer() string                  { return "rbac-admin" }

func TestJWTProvider(t *testing.T) {
	p := NewJWTProvider(jwtConfig{})

	token, err := p.Generate(domain.TokenTypeAccess, 42, "sid-1")
	require.NoError(t, err)

	claims, err := p.Verify(domain.TokenTypeAccess, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.Sub)
	assert.Equal(t, "sid-1", claims.Sid)

	_, err = p.Verify(domain.TokenTypeAccess, token+"x")
	assert.Error(t, err)

	refresh, err := p.Generate(domain.TokenTypeRefresh, 42, "sid-1")
	require.NoError(t, err)
	assert.Len(t, refresh, 64)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hashed, err := h.Hash("password")
	require.NoError(t, err)
	assert.True(t, h.Compare(hashed, "password"))
	assert.False(t, h.Compare(hashed, "Password"))
}
