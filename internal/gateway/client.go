package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/config"
)

// ErrNotConfigured indica ausência de EVOLUTION_API_URL ou EVOLUTION_API_KEY.
// Mapeado para 500 em todos os endpoints de proxy.
var ErrNotConfigured = errors.New("configuração da Evolution API não encontrada")

// RequestError carrega uma resposta não-2xx do gateway. O corpo do upstream
// é repassado sem modificação para fins de diagnóstico.
type RequestError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("gateway: upstream respondeu %d", e.StatusCode)
}

// Client fala com o gateway de WhatsApp (Evolution API). Uma chamada por
// operação, sem retry; o timeout evita que um upstream travado prenda a
// goroutine da requisição indefinidamente.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg config.EvolutionConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// Configured informa se as credenciais do gateway estão presentes.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("gateway: erro do upstream",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: errorBody(respBody)}
	}

	return respBody, nil
}

// errorBody preserva o corpo do upstream como JSON; corpos não-JSON viram
// uma string JSON para que o campo details continue serializável.
func errorBody(body []byte) json.RawMessage {
	if json.Valid(body) && len(bytes.TrimSpace(body)) > 0 {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

// CreateInstance cria uma instância no gateway e pede o QR de pareamento.
func (c *Client) CreateInstance(ctx context.Context, instanceName string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/instance/create", map[string]interface{}{
		"instanceName": instanceName,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	})
}

// ConnectionState consulta o estado da conexão de uma instância.
func (c *Client) ConnectionState(ctx context.Context, instanceName string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/instance/connectionState/"+instanceName, nil)
}

// Connect (re)gera o QR de pareamento de uma instância existente.
func (c *Client) Connect(ctx context.Context, instanceName string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/instance/connect/"+instanceName, nil)
}

// Logout desconecta a sessão de WhatsApp sem apagar a instância.
func (c *Client) Logout(ctx context.Context, instanceName string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/instance/logout/"+instanceName, nil)
}

// DeleteInstance remove a instância do gateway.
func (c *Client) DeleteInstance(ctx context.Context, instanceName string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/instance/delete/"+instanceName, nil)
}

// FetchInstances lista todas as instâncias registradas no gateway.
func (c *Client) FetchInstances(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/instance/fetchInstances", nil)
}

// SendText envia uma mensagem de texto. O número já deve estar normalizado
// (ver NormalizePhone).
func (c *Client) SendText(ctx context.Context, instanceName, number, text string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/message/sendText/"+instanceName, map[string]interface{}{
		"number": number,
		"text":   text,
		"options": map[string]interface{}{
			"delay":       1200,
			"linkPreview": false,
		},
	})
}

// FindMessages busca o histórico paginado de um contato.
func (c *Client) FindMessages(ctx context.Context, instanceName string, where map[string]interface{}, page, offset int) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/chat/findMessages/"+instanceName, map[string]interface{}{
		"where":  where,
		"page":   page,
		"offset": offset,
	})
}

// SetWebhook registra a URL de callback desta aplicação no gateway.
func (c *Client) SetWebhook(ctx context.Context, instanceName, webhookURL, webhookToken string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/webhook/set/"+instanceName, map[string]interface{}{
		"webhook": map[string]interface{}{
			"enabled": true,
			"url":     webhookURL,
			"headers": map[string]string{
				"authorization": "Bearer " + webhookToken,
				"Content-Type":  "application/json",
			},
			"byEvents": false,
			"base64":   false,
			"events": []string{
				"QRCODE_UPDATED",
				"MESSAGES_UPSERT",
				"MESSAGES_UPDATE",
				"MESSAGES_DELETE",
				"SEND_MESSAGE",
				"CONNECTION_UPDATE",
				"CALL",
			},
		},
	})
}
