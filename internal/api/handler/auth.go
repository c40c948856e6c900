package handler

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/coderag/index_go_server/config"
	"github.com/coderag/index_go_server/internal/model/dto"
	"github.com/coderag/index_go_server/internal/pkg/jwt"
	"github.com/coderag/index_go_server/internal/pkg/response"
)

type AuthHandler struct {
	cfg *config.JWTConfig
}

func NewAuthHandler(cfg *config.JWTConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Token exchanges the service API key for a JWT.
// POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if h.cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.APIKey)) != 1 {
		response.AuthError(c, "invalid api key")
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = "client"
	}

	expireHours := h.cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}

	token, err := jwt.GenerateToken(subject, h.cfg.Secret, expireHours)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"token": token, "expires_in_hours": expireHours})
}
