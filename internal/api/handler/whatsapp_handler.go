package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/funnel"
	"github.com/ailum-crm/ailum/internal/gateway"
	"github.com/ailum-crm/ailum/internal/inbox"
	"github.com/ailum-crm/ailum/internal/pkg/response"
)

// WhatsAppHandler expõe o gateway de WhatsApp para o frontend. Cada
// endpoint é um proxy fino: valida entrada, chama o gateway e repassa a
// resposta, anexando normalizações quando o frontend precisa delas.
type WhatsAppHandler struct {
	client  *gateway.Client
	store   inbox.Store
	funnels *funnel.Service
	baseURL string
	log     *zap.Logger
}

func NewWhatsAppHandler(client *gateway.Client, store inbox.Store, funnels *funnel.Service, baseURL string, log *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		client:  client,
		store:   store,
		funnels: funnels,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (h *WhatsAppHandler) Register(r *gin.RouterGroup) {
	grp := r.Group("/whatsapp")
	grp.POST("/instance", h.createInstance)
	grp.GET("/instance/status", h.connectionState)
	grp.GET("/instance/fetch", h.fetchInstance)
	grp.POST("/instance/connect", h.connect)
	grp.POST("/instance/disconnect", h.disconnect)
	grp.POST("/instance/delete", h.deleteInstance)
	grp.POST("/messages/send-text", h.sendText)
	grp.POST("/messages/find-messages-from-contact", h.findMessages)
	grp.POST("/webhook/set", h.setWebhook)
}

// gatewayError traduz falhas do cliente para o contrato de erro do proxy:
// configuração ausente vira 500 com mensagem fixa; erro do upstream
// repassa o próprio status e o corpo original em details.
func (h *WhatsAppHandler) gatewayError(c *gin.Context, err error) {
	if errors.Is(err, gateway.ErrNotConfigured) {
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Configuração da Evolution API não encontrada")
		return
	}

	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) {
		response.ErrorWithDetails(c, reqErr.StatusCode, "Erro na Evolution API", reqErr.Body)
		return
	}

	h.log.Error("whatsapp: falha no gateway", zap.Error(err))
	response.ErrorWithMessage(c, http.StatusBadGateway, "Erro ao comunicar com a Evolution API")
}

type instanceRequest struct {
	InstanceName string `json:"instanceName" binding:"required"`
}

func (h *WhatsAppHandler) createInstance(c *gin.Context) {
	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	raw, err := h.client.CreateInstance(c.Request.Context(), req.InstanceName)
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"success":  true,
		"instance": json.RawMessage(raw),
		"qrcode":   extractQRCode(raw),
	})
}

// extractQRCode devolve o QR em data URI. Quando o gateway manda só o
// código de pareamento sem a imagem, o PNG é renderizado localmente.
func extractQRCode(raw json.RawMessage) string {
	var payload struct {
		QRCode struct {
			Base64 string `json:"base64"`
			Code   string `json:"code"`
		} `json:"qrcode"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.QRCode.Base64 != "" {
		return payload.QRCode.Base64
	}
	if payload.QRCode.Code == "" {
		return ""
	}
	png, err := qrcode.Encode(payload.QRCode.Code, qrcode.Medium, 256)
	if err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func (h *WhatsAppHandler) connectionState(c *gin.Context) {
	instanceName := c.Query("instanceName")
	if instanceName == "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	raw, err := h.client.ConnectionState(c.Request.Context(), instanceName)
	if err != nil {
		h.gatewayError(c, err)
		return
	}
	response.Success(c, http.StatusOK, json.RawMessage(raw))
}

type fetchedInstance struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	InstanceName     string `json:"instanceName"`
	Number           string `json:"number"`
	OwnerJid         string `json:"ownerJid"`
	ProfileName      string `json:"profileName"`
	ProfilePicURL    string `json:"profilePicUrl"`
	ConnectionStatus string `json:"connectionStatus"`
	Count            struct {
		Message int `json:"Message"`
		Contact int `json:"Contact"`
		Chat    int `json:"Chat"`
	} `json:"_count"`
}

func (i fetchedInstance) name() string {
	if i.Name != "" {
		return i.Name
	}
	return i.InstanceName
}

// fetchInstance filtra fetchInstances para a instância pedida e resume os
// campos que o painel exibe.
func (h *WhatsAppHandler) fetchInstance(c *gin.Context) {
	instanceName := c.Query("instanceName")
	if instanceName == "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	raw, err := h.client.FetchInstances(c.Request.Context())
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	var instances []fetchedInstance
	if err := json.Unmarshal(raw, &instances); err != nil {
		h.log.Warn("whatsapp: resposta de fetchInstances fora do formato esperado", zap.Error(err))
		response.ErrorWithDetails(c, http.StatusBadGateway, "Resposta inesperada da Evolution API", json.RawMessage(raw))
		return
	}

	for _, inst := range instances {
		if inst.name() != instanceName {
			continue
		}
		number := inst.Number
		if number == "" {
			number = strings.TrimSuffix(inst.OwnerJid, "@s.whatsapp.net")
		}
		response.Success(c, http.StatusOK, gin.H{
			"success": true,
			"instance": gin.H{
				"instanceName":     inst.name(),
				"number":           number,
				"profileName":      inst.ProfileName,
				"profilePicUrl":    inst.ProfilePicURL,
				"connectionStatus": inst.ConnectionStatus,
				"stats": gin.H{
					"messages": inst.Count.Message,
					"contacts": inst.Count.Contact,
					"chats":    inst.Count.Chat,
				},
			},
		})
		return
	}

	response.ErrorWithMessage(c, http.StatusNotFound, "Instância não encontrada")
}

func (h *WhatsAppHandler) connect(c *gin.Context) {
	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	raw, err := h.client.Connect(c.Request.Context(), req.InstanceName)
	if err != nil {
		h.gatewayError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"success":  true,
		"instance": json.RawMessage(raw),
		"qrcode":   extractQRCode(raw),
	})
}

func (h *WhatsAppHandler) disconnect(c *gin.Context) {
	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	raw, err := h.client.Logout(c.Request.Context(), req.InstanceName)
	if err != nil {
		h.gatewayError(c, err)
		return
	}
	response.Success(c, http.StatusOK, json.RawMessage(raw))
}

func (h *WhatsAppHandler) deleteInstance(c *gin.Context) {
	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	raw, err := h.client.DeleteInstance(c.Request.Context(), req.InstanceName)
	if err != nil {
		h.gatewayError(c, err)
		return
	}
	response.Success(c, http.StatusOK, json.RawMessage(raw))
}

type sendTextRequest struct {
	InstanceName string `json:"instanceName"`
	PhoneNumber  string `json:"phoneNumber"`
	Message      string `json:"message"`
}

func (h *WhatsAppHandler) sendText(c *gin.Context) {
	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InstanceName == "" || req.PhoneNumber == "" || req.Message == "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName, phoneNumber e message são obrigatórios")
		return
	}

	number := gateway.NormalizePhone(req.PhoneNumber)
	raw, err := h.client.SendText(c.Request.Context(), req.InstanceName, number, req.Message)
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	// Regra de saída do funil: contato conhecido passa a aguardar o
	// cliente. Falha aqui não desfaz o envio já aceito pelo gateway.
	if ownerID := c.GetString("userID"); ownerID != "" {
		if err := h.funnels.RecordOutbound(c.Request.Context(), ownerID, req.PhoneNumber, time.Now()); err != nil {
			h.log.Warn("whatsapp: falha ao registrar saída no funil",
				zap.String("owner", ownerID),
				zap.Error(err),
			)
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"success": true,
		"result":  json.RawMessage(raw),
	})
}

type findMessagesRequest struct {
	InstanceName string `json:"instanceName"`
	Where        struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
		} `json:"key"`
	} `json:"where"`
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

func (h *WhatsAppHandler) findMessages(c *gin.Context) {
	var req findMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InstanceName == "" || req.Where.Key.RemoteJid == "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName e where.key.remoteJid são obrigatórios")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Offset <= 0 {
		req.Offset = 10
	}

	where := map[string]interface{}{
		"key": map[string]interface{}{
			"remoteJid": req.Where.Key.RemoteJid,
		},
	}
	raw, err := h.client.FindMessages(c.Request.Context(), req.InstanceName, where, req.Page, req.Offset)
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	page, err := gateway.ParseFindMessages(raw)
	if err != nil {
		h.log.Warn("whatsapp: resposta de findMessages fora do formato esperado", zap.Error(err))
		response.ErrorWithDetails(c, http.StatusBadGateway, "Resposta inesperada da Evolution API", json.RawMessage(raw))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"success":  true,
		"messages": page,
	})
}

// setWebhook registra a URL de callback no gateway com um token novo e
// guarda apenas o hash do token; o receptor compara hashes, nunca o
// token em claro.
func (h *WhatsAppHandler) setWebhook(c *gin.Context) {
	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "instanceName é obrigatório")
		return
	}

	token := base64.StdEncoding.EncodeToString(
		[]byte(fmt.Sprintf("%s-%d", req.InstanceName, time.Now().UnixMilli())),
	)
	// O token também vai na query string; alguns gateways descartam
	// cabeçalhos customizados ao entregar o webhook.
	webhookURL := h.baseURL + "/api/webhook/receiver/" + req.InstanceName +
		"?token=" + url.QueryEscape(token)

	raw, err := h.client.SetWebhook(c.Request.Context(), req.InstanceName, webhookURL, token)
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	if err := h.store.SetTokenHash(c.Request.Context(), req.InstanceName, HashToken(token)); err != nil {
		h.log.Error("whatsapp: falha ao guardar hash do token de webhook",
			zap.String("instance", req.InstanceName),
			zap.Error(err),
		)
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro ao registrar webhook")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"success":      true,
		"webhookUrl":   webhookURL,
		"webhookToken": token,
		"response":     json.RawMessage(raw),
	})
}

// HashToken normaliza o token de webhook para comparação em repouso.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
