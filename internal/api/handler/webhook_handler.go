package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/funnel"
	"github.com/ailum-crm/ailum/internal/inbox"
	"github.com/ailum-crm/ailum/internal/pkg/response"
	"github.com/ailum-crm/ailum/internal/storage"
)

// FunnelRecorder aplica as regras de funil disparadas por mensagens.
type FunnelRecorder interface {
	RecordInbound(ctx context.Context, ownerID, phone, pushName string, now time.Time) (funnel.Contact, error)
	RecordOutbound(ctx context.Context, ownerID, phone string, now time.Time) error
}

// WebhookHandler recebe callbacks do gateway. Fica fora do grupo
// autenticado: o gateway não porta JWT, a verificação é pelo token
// registrado em /whatsapp/webhook/set.
type WebhookHandler struct {
	store    inbox.Store
	hub      *inbox.Hub
	recorder FunnelRecorder
	users    storage.UserRepository
	log      *zap.Logger
}

func NewWebhookHandler(store inbox.Store, hub *inbox.Hub, recorder FunnelRecorder, users storage.UserRepository, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		store:    store,
		hub:      hub,
		recorder: recorder,
		users:    users,
		log:      log,
	}
}

func (h *WebhookHandler) Register(r *gin.RouterGroup) {
	grp := r.Group("/webhook")
	grp.POST("/receiver/:instanceKey", h.receive)
	grp.GET("/receiver/:instanceKey", h.list)
	grp.GET("/receiver/:instanceKey/stream", h.stream)
}

// authorize compara o token apresentado com o hash registrado para a
// chave. Chave sem hash aceita qualquer chamador: cobre gateways
// registrados fora do fluxo de /whatsapp/webhook/set.
func (h *WebhookHandler) authorize(c *gin.Context, instanceKey string) bool {
	stored, err := h.store.TokenHash(c.Request.Context(), instanceKey)
	if err != nil {
		h.log.Error("webhook: falha ao consultar token", zap.String("instance", instanceKey), zap.Error(err))
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro interno do servidor")
		return false
	}
	if stored == "" {
		return true
	}

	presented := c.Query("token")
	if presented == "" {
		header := c.GetHeader("Authorization")
		presented = strings.TrimPrefix(header, "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(HashToken(presented)), []byte(stored)) != 1 {
		response.ErrorWithMessage(c, http.StatusUnauthorized, "Token de webhook inválido")
		return false
	}
	return true
}

func (h *WebhookHandler) receive(c *gin.Context) {
	instanceKey := c.Param("instanceKey")
	if !h.authorize(c, instanceKey) {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.ErrorWithMessage(c, http.StatusBadRequest, "Erro ao ler corpo da requisição")
		return
	}

	rec, err := inbox.DecodeEvent(instanceKey, body, time.Now())
	if err != nil {
		// Corpo malformado não toca o buffer.
		response.ErrorWithDetails(c, http.StatusBadRequest, "Erro ao processar dados do webhook", err.Error())
		return
	}

	if err := h.store.Append(c.Request.Context(), instanceKey, rec); err != nil {
		h.log.Error("webhook: falha ao anexar evento",
			zap.String("instance", instanceKey),
			zap.String("event", rec.EventType),
			zap.Error(err),
		)
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro ao armazenar evento")
		return
	}

	h.hub.Publish(instanceKey, rec)
	h.applyFunnelRules(c, instanceKey, rec)

	h.log.Info("webhook: evento recebido",
		zap.String("instance", instanceKey),
		zap.String("event", rec.EventType),
		zap.String("direction", string(rec.Direction)),
	)

	response.Success(c, http.StatusOK, gin.H{
		"success":       true,
		"message":       "Evento recebido com sucesso",
		"instanceName":  instanceKey,
		"eventType":     rec.EventType,
		"messageStored": true,
	})
}

// applyFunnelRules traduz um upsert de mensagem em mutação de funil do
// dono da instância. A convenção liga instância a usuário pelo email ou
// pelo id; chave sem dono conhecido só alimenta o buffer.
func (h *WebhookHandler) applyFunnelRules(c *gin.Context, instanceKey string, rec inbox.MessageRecord) {
	if rec.EventType != inbox.EventMessagesUpsert || rec.Sender == "" {
		return
	}

	ctx := c.Request.Context()
	ownerID, ok := h.resolveOwner(ctx, instanceKey)
	if !ok {
		return
	}

	phone := strings.TrimSuffix(rec.Sender, "@s.whatsapp.net")
	now := time.Now()

	var err error
	switch rec.Direction {
	case inbox.DirectionReceived:
		_, err = h.recorder.RecordInbound(ctx, ownerID, phone, rec.PushName, now)
	case inbox.DirectionSent:
		err = h.recorder.RecordOutbound(ctx, ownerID, phone, now)
	default:
		return
	}
	if err != nil {
		h.log.Warn("webhook: falha ao aplicar regra de funil",
			zap.String("instance", instanceKey),
			zap.String("owner", ownerID),
			zap.Error(err),
		)
	}
}

func (h *WebhookHandler) resolveOwner(ctx context.Context, instanceKey string) (string, bool) {
	if user, err := h.users.GetByEmail(ctx, strings.ToLower(instanceKey)); err == nil {
		return user.ID, true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", false
	}
	if user, err := h.users.GetByID(ctx, instanceKey); err == nil {
		return user.ID, true
	}
	return "", false
}

func (h *WebhookHandler) list(c *gin.Context) {
	instanceKey := c.Param("instanceKey")
	if !h.authorize(c, instanceKey) {
		return
	}

	messages, err := h.store.List(c.Request.Context(), instanceKey)
	if err != nil {
		h.log.Error("webhook: falha ao listar eventos", zap.String("instance", instanceKey), zap.Error(err))
		response.ErrorWithMessage(c, http.StatusInternalServerError, "Erro ao buscar mensagens")
		return
	}

	// Chave vazia responde um registro sintético para o cliente saber que
	// o armazenamento funciona mas nada real chegou ainda.
	if len(messages) == 0 {
		messages = []inbox.MessageRecord{inbox.Placeholder(instanceKey, time.Now())}
	}

	response.Success(c, http.StatusOK, gin.H{
		"success":      true,
		"instanceName": instanceKey,
		"messages":     messages,
	})
}

const streamHeartbeat = 25 * time.Second

// stream entrega eventos por SSE conforme chegam. Cliente que perder
// eventos (canal cheio, reconexão) ressincroniza pelo GET de polling.
func (h *WebhookHandler) stream(c *gin.Context) {
	instanceKey := c.Param("instanceKey")
	if !h.authorize(c, instanceKey) {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.ErrorWithMessage(c, http.StatusInternalServerError, "streaming não suportado")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.hub.Subscribe(instanceKey)
	defer cancel()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := c.Writer.WriteString(": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case rec, open := <-events:
			if !open {
				return
			}
			c.SSEvent("message", rec)
			flusher.Flush()
		}
	}
}
