package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.EvolutionConfig{URL: baseURL, APIKey: "chave-teste"}, zap.NewNop())
}

func TestClientNotConfigured(t *testing.T) {
	client := NewClient(config.EvolutionConfig{}, zap.NewNop())

	_, err := client.ConnectionState(context.Background(), "inst")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientSendsAPIKeyHeader(t *testing.T) {
	var gotKey, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"state":"open"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.ConnectionState(context.Background(), "inst")
	require.NoError(t, err)

	assert.Equal(t, "chave-teste", gotKey)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClientCreateInstancePayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"instance":{"instanceName":"clinica"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.CreateInstance(context.Background(), "clinica")
	require.NoError(t, err)

	assert.Equal(t, "/instance/create", gotPath)
	assert.Equal(t, "clinica", gotBody["instanceName"])
	assert.Equal(t, true, gotBody["qrcode"])
	assert.Equal(t, "WHATSAPP-BAILEYS", gotBody["integration"])
}

func TestClientSendTextPayload(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.SendText(context.Background(), "clinica", "5511987654321@s.whatsapp.net", "Olá!")
	require.NoError(t, err)

	assert.Equal(t, "5511987654321@s.whatsapp.net", gotBody["number"])
	assert.Equal(t, "Olá!", gotBody["text"])

	options, ok := gotBody["options"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1200), options["delay"])
	assert.Equal(t, false, options["linkPreview"])
}

func TestClientUpstreamErrorPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"instance not found"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.ConnectionState(context.Background(), "fantasma")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.JSONEq(t, `{"message":"instance not found"}`, string(reqErr.Body))
}

func TestClientUpstreamErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("Bad Gateway"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.ConnectionState(context.Background(), "inst")

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, json.Valid(reqErr.Body))
	assert.Equal(t, `"Bad Gateway"`, string(reqErr.Body))
}

func TestClientSetWebhookEvents(t *testing.T) {
	var gotBody struct {
		Webhook struct {
			Enabled bool              `json:"enabled"`
			URL     string            `json:"url"`
			Headers map[string]string `json:"headers"`
			Events  []string          `json:"events"`
		} `json:"webhook"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.SetWebhook(context.Background(), "clinica", "https://app/api/webhook/receiver/clinica", "tok")
	require.NoError(t, err)

	assert.True(t, gotBody.Webhook.Enabled)
	assert.Equal(t, "https://app/api/webhook/receiver/clinica", gotBody.Webhook.URL)
	assert.Equal(t, "Bearer tok", gotBody.Webhook.Headers["authorization"])
	assert.Contains(t, gotBody.Webhook.Events, "MESSAGES_UPSERT")
	assert.Contains(t, gotBody.Webhook.Events, "CONNECTION_UPDATE")
	assert.Contains(t, gotBody.Webhook.Events, "QRCODE_UPDATED")
}
