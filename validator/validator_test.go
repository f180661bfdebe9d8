package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"rbac-admin/domain"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindBody(t *testing.T, body string, obj any) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, obj)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *domain.DetailedError
	require.True(t, errors.As(err, &de), "expected a detailed error, got %v", err)
	return de.FieldErrors()
}

func TestGuardValidation(t *testing.T) {
	RegisterValidatorWithGin(domain.GuardSet{"web", "api"})

	var ok domain.PermissionCreateRequest
	require.NoError(t, bindBody(t, `{"name":"edit posts","guards":["web","api"]}`, &ok))

	var bad domain.PermissionCreateRequest
	err := bindBody(t, `{"name":"edit posts","guards":["admin"]}`, &bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, fieldErrors(t, err)["guards[0]"], "guard is invalid")
}

func TestRequiredAndConfirmationMessages(t *testing.T) {
	RegisterValidatorWithGin(domain.GuardSet{"web"})

	var req domain.UserCreateRequest
	err := bindBody(t, `{"email":"not-an-email","password":"password1","password_confirmation":"password2"}`, &req)
	fields := fieldErrors(t, err)
	assert.Equal(t, "The name field is required.", fields["name"])
	assert.Contains(t, fields, "email")
	assert.Equal(t, "The password_confirmation field confirmation does not match.", fields["password_confirmation"])
}

func TestTokenStatusValidation(t *testing.T) {
	RegisterValidatorWithGin(domain.GuardSet{"web"})

	var req domain.TokenRequest
	err := bindBody(t, `{"name":"A","symbol":"A","supply":"10","network":"sol","status":"burned"}`, &req)
	assert.Contains(t, fieldErrors(t, err), "status")

	req = domain.TokenRequest{}
	require.NoError(t, bindBody(t, `{"name":"A","symbol":"A","supply":"10","network":"sol","status":"active"}`, &req))
	assert.Equal(t, domain.TokenStatusActive, req.Status)
}

func TestMalformedBodies(t *testing.T) {
	RegisterValidatorWithGin(domain.GuardSet{"web"})

	var req domain.PermissionCreateRequest
	err := bindBody(t, `{"name":`, &req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = bindBody(t, `{"name":12}`, &req)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, fieldErrors(t, err), "name")
}
