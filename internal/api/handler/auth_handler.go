package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailum-crm/ailum/internal/pkg/response"
	authSvc "github.com/ailum-crm/ailum/internal/service/auth"
)

type AuthHandler struct {
	service *authSvc.Service
}

func NewAuthHandler(service *authSvc.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	user, err := h.service.Register(c.Request.Context(), authSvc.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, authSvc.ErrMissingFields),
			errors.Is(err, authSvc.ErrWeakPassword),
			errors.Is(err, authSvc.ErrEmailInUse):
			response.Error(c, http.StatusBadRequest, err)
		default:
			response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		return
	}

	// PasswordHash tem tag json:"-"; a resposta nunca carrega a senha.
	response.Success(c, http.StatusCreated, gin.H{
		"success": true,
		"message": "Usuário registrado com sucesso",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authSvc.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, err)
		} else {
			response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
