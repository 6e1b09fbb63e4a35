package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authSvc "github.com/ailum-crm/ailum/internal/service/auth"
	"github.com/ailum-crm/ailum/internal/storage/model"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *fakeUsers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &fakeUsers{users: make(map[string]model.User)}
	service := authSvc.NewService("segredo", 24, users)
	h := NewAuthHandler(service)

	router := gin.New()
	h.Register(router.Group("/api"))
	return router, users
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	router, users := newAuthRouter(t)

	w := postJSON(router, "/api/register", `{
		"firstName": "Ana",
		"lastName": "Lima",
		"email": "ana@clinica.com",
		"password": "senha-forte-123"
	}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Usuário registrado com sucesso", resp["message"])

	user, ok := resp["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ana@clinica.com", user["email"])

	// Nenhum material de senha sai na resposta.
	body := w.Body.String()
	assert.NotContains(t, body, "senha-forte-123")
	assert.NotContains(t, body, "passwordHash")

	assert.Len(t, users.users, 1)
}

func TestRegisterEndpointWeakPassword(t *testing.T) {
	router, users := newAuthRouter(t)

	w := postJSON(router, "/api/register", `{
		"firstName": "Ana",
		"lastName": "Lima",
		"email": "ana@clinica.com",
		"password": "1234567"
	}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "pelo menos 8 caracteres")
	assert.Empty(t, users.users)
}

func TestRegisterEndpointMissingFields(t *testing.T) {
	router, users := newAuthRouter(t)

	w := postJSON(router, "/api/register", `{"email": "ana@clinica.com", "password": "senha-forte-123"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, users.users)
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	router, users := newAuthRouter(t)
	users.users["ana@clinica.com"] = model.User{ID: uuid.NewString(), Email: "ana@clinica.com"}

	w := postJSON(router, "/api/register", `{
		"firstName": "Ana",
		"lastName": "Lima",
		"email": "ana@clinica.com",
		"password": "senha-forte-123"
	}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "já está em uso")
	assert.Len(t, users.users, 1)
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	w := postJSON(router, "/api/register", `{
		"firstName": "Ana",
		"lastName": "Lima",
		"email": "ana@clinica.com",
		"password": "senha-forte-123"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/login", `{"email": "ana@clinica.com", "password": "senha-forte-123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])

	w = postJSON(router, "/api/login", `{"email": "ana@clinica.com", "password": "errada-123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
