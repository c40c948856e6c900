package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/index_go_server/config"
	"github.com/coderag/index_go_server/internal/pkg/jwt"
	"github.com/coderag/index_go_server/internal/pkg/response"
)

func setupAuthEnv() *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewAuthHandler(&config.JWTConfig{
		Secret:      "test-secret",
		APIKey:      "test-api-key",
		ExpireHours: 24,
	})

	engine := gin.New()
	engine.POST("/api/v1/auth/token", h.Token)
	return engine
}

func postToken(t *testing.T, engine *gin.Engine, body interface{}) response.Response {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthHandler_Token(t *testing.T) {
	engine := setupAuthEnv()

	resp := postToken(t, engine, gin.H{"api_key": "test-api-key", "subject": "indexer-cli"})
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	token := data["token"].(string)
	require.NotEmpty(t, token)

	claims, err := jwt.ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "indexer-cli", claims.Subject)
}

func TestAuthHandler_Token_DefaultSubject(t *testing.T) {
	engine := setupAuthEnv()

	resp := postToken(t, engine, gin.H{"api_key": "test-api-key"})
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	claims, err := jwt.ParseToken(data["token"].(string), "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "client", claims.Subject)
}

func TestAuthHandler_Token_WrongKey(t *testing.T) {
	engine := setupAuthEnv()

	resp := postToken(t, engine, gin.H{"api_key": "nope"})
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_Token_MissingKey(t *testing.T) {
	engine := setupAuthEnv()

	resp := postToken(t, engine, gin.H{"subject": "c"})
	assert.Equal(t, response.CodeParamError, resp.Code)
}
