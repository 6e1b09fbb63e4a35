package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/pkg/response"
	templateSvc "github.com/ailum-crm/ailum/internal/service/template"
	"github.com/ailum-crm/ailum/internal/storage"
)

type TemplateHandler struct {
	service *templateSvc.Service
	log     *zap.Logger
}

func NewTemplateHandler(service *templateSvc.Service, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{service: service, log: log}
}

func (h *TemplateHandler) Register(r *gin.RouterGroup) {
	grp := r.Group("/templates")
	grp.GET("", h.list)
	grp.POST("", h.create)
	grp.PUT("/:id", h.update)
	grp.DELETE("/:id", h.delete)
	grp.POST("/:id/star", h.toggleStar)
}

func (h *TemplateHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, templateSvc.ErrInvalidTitle),
		errors.Is(err, templateSvc.ErrInvalidCategory):
		response.Error(c, http.StatusBadRequest, err)
	case errors.Is(err, storage.ErrNotFound):
		response.ErrorWithMessage(c, http.StatusNotFound, "modelo não encontrado")
	default:
		h.log.Error("template: erro inesperado", zap.Error(err))
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

func (h *TemplateHandler) list(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context(), c.GetString("userID"), templateSvc.ListFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"templates":  templates,
		"categories": templateSvc.Categories,
	})
}

type templateRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func (h *TemplateHandler) create(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	created, err := h.service.Create(c.Request.Context(), c.GetString("userID"), templateSvc.CreateInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

func (h *TemplateHandler) update(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	updated, err := h.service.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), templateSvc.UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *TemplateHandler) toggleStar(c *gin.Context) {
	starred, err := h.service.ToggleStar(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, starred)
}

func (h *TemplateHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true})
}
