package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/funnel"
	"github.com/ailum-crm/ailum/internal/pkg/response"
)

// FunnelHandler serve o quadro de funis do usuário autenticado. Toda
// rota opera sobre o documento do dono (userID do token).
type FunnelHandler struct {
	service *funnel.Service
	log     *zap.Logger
}

func NewFunnelHandler(service *funnel.Service, log *zap.Logger) *FunnelHandler {
	return &FunnelHandler{service: service, log: log}
}

func (h *FunnelHandler) Register(r *gin.RouterGroup) {
	funnels := r.Group("/funnels")
	funnels.GET("/board", h.getBoard)
	funnels.PUT("/board", h.putBoard)
	funnels.POST("", h.createFunnel)
	funnels.PUT("/:id", h.renameFunnel)
	funnels.DELETE("/:id", h.deleteFunnel)
	funnels.POST("/:id/stages", h.addStage)

	contacts := r.Group("/contacts")
	contacts.GET("", h.listContacts)
	contacts.POST("", h.createContact)
	contacts.PUT("/:id", h.updateContact)
	contacts.PUT("/:id/move", h.moveContact)
	contacts.DELETE("/:id", h.deleteContact)
}

func (h *FunnelHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, funnel.ErrFunnelNotFound),
		errors.Is(err, funnel.ErrStageNotFound),
		errors.Is(err, funnel.ErrContactNotFound):
		response.Error(c, http.StatusNotFound, err)
	case errors.Is(err, funnel.ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, err)
	case errors.Is(err, funnel.ErrBoardBusy):
		response.Error(c, http.StatusConflict, err)
	default:
		h.log.Error("funnel: erro inesperado", zap.Error(err))
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

func (h *FunnelHandler) getBoard(c *gin.Context) {
	board, err := h.service.Load(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, board)
}

func (h *FunnelHandler) putBoard(c *gin.Context) {
	var board funnel.Board
	if err := c.ShouldBindJSON(&board); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "documento do quadro inválido")
		return
	}

	saved, err := h.service.Replace(c.Request.Context(), c.GetString("userID"), board)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, saved)
}

type createFunnelRequest struct {
	Name   string         `json:"name" binding:"required"`
	Stages []funnel.Stage `json:"stages"`
}

func (h *FunnelHandler) createFunnel(c *gin.Context) {
	var req createFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "name é obrigatório")
		return
	}

	created, err := h.service.CreateFunnel(c.Request.Context(), c.GetString("userID"), funnel.CreateFunnelInput{
		Name:   req.Name,
		Stages: req.Stages,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

type renameFunnelRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *FunnelHandler) renameFunnel(c *gin.Context) {
	var req renameFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "name é obrigatório")
		return
	}

	renamed, err := h.service.RenameFunnel(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, renamed)
}

func (h *FunnelHandler) deleteFunnel(c *gin.Context) {
	if err := h.service.DeleteFunnel(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true})
}

func (h *FunnelHandler) addStage(c *gin.Context) {
	var stage funnel.Stage
	if err := c.ShouldBindJSON(&stage); err != nil || stage.Name == "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, "name é obrigatório")
		return
	}

	added, err := h.service.AddStage(c.Request.Context(), c.GetString("userID"), c.Param("id"), stage)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, added)
}

func (h *FunnelHandler) listContacts(c *gin.Context) {
	filter := funnel.Filter{
		FunnelID: c.Query("funnelId"),
		StageID:  c.Query("stageId"),
		Status:   funnel.ContactStatus(c.Query("status")),
		Query:    c.Query("q"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, http.StatusBadRequest, funnel.ErrInvalidStatus)
		return
	}

	contacts, err := h.service.FilterContacts(c.Request.Context(), c.GetString("userID"), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"contacts": contacts})
}

type contactRequest struct {
	Name     string               `json:"name"`
	Phone    string               `json:"phone"`
	Email    string               `json:"email"`
	FunnelID string               `json:"funnelId"`
	StageID  string               `json:"stageId"`
	Status   funnel.ContactStatus `json:"status"`
	Value    *float64             `json:"value"`
}

func (h *FunnelHandler) createContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Phone == "" || req.FunnelID == "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, "name, phone e funnelId são obrigatórios")
		return
	}

	var value float64
	if req.Value != nil {
		value = *req.Value
	}
	created, err := h.service.CreateContact(c.Request.Context(), c.GetString("userID"), funnel.CreateContactInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		FunnelID: req.FunnelID,
		StageID:  req.StageID,
		Status:   req.Status,
		Value:    value,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

func (h *FunnelHandler) updateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	updated, err := h.service.UpdateContact(c.Request.Context(), c.GetString("userID"), c.Param("id"), funnel.UpdateContactInput{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Status: req.Status,
		Value:  req.Value,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

type moveContactRequest struct {
	StageID string `json:"stageId" binding:"required"`
}

func (h *FunnelHandler) moveContact(c *gin.Context) {
	var req moveContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "stageId é obrigatório")
		return
	}

	moved, err := h.service.MoveContact(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.StageID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, moved)
}

func (h *FunnelHandler) deleteContact(c *gin.Context) {
	if err := h.service.DeleteContact(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true})
}
