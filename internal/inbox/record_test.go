package inbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestDecodeEventMessagesUpsert(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"id": "ABC123", "remoteJid": "5511987654321@s.whatsapp.net", "fromMe": false},
			"pushName": "Maria",
			"message": {"conversation": "Olá, gostaria de agendar"},
			"messageTimestamp": 1741608000
		}
	}`)

	rec, err := DecodeEvent("clinica-teste", body, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "ABC123", rec.ID)
	assert.Equal(t, "clinica-teste", rec.InstanceKey)
	assert.Equal(t, DirectionReceived, rec.Direction)
	assert.Equal(t, EventMessagesUpsert, rec.EventType)
	assert.Equal(t, "Olá, gostaria de agendar", rec.Content)
	assert.Equal(t, "5511987654321@s.whatsapp.net", rec.Sender)
	assert.Equal(t, "Maria", rec.PushName)
	assert.Equal(t, time.Unix(1741608000, 0).UTC().Format(time.RFC3339), rec.Timestamp)
}

func TestDecodeEventUpsertFromMe(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"id": "XYZ", "remoteJid": "5511@s.whatsapp.net", "fromMe": true},
			"message": {"extendedTextMessage": {"text": "Confirmado!"}}
		}
	}`)

	rec, err := DecodeEvent("k", body, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, DirectionSent, rec.Direction)
	assert.Equal(t, "Confirmado!", rec.Content)
}

func TestDecodeEventUpsertSemTexto(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"id": "IMG1", "remoteJid": "5511@s.whatsapp.net", "fromMe": false},
			"message": {"imageMessage": {"url": "https://example.com/x.jpg"}}
		}
	}`)

	rec, err := DecodeEvent("k", body, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Sem texto", rec.Content)
}

func TestDecodeEventConnectionUpdate(t *testing.T) {
	rec, err := DecodeEvent("k", []byte(`{"event":"connection.update","data":{"state":"open"}}`), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, DirectionSystem, rec.Direction)
	assert.Equal(t, "Conexão: open", rec.Content)

	rec, err = DecodeEvent("k", []byte(`{"event":"connection.update","data":{}}`), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Conexão: unknown", rec.Content)
}

func TestDecodeEventQRCodeUpdated(t *testing.T) {
	rec, err := DecodeEvent("k", []byte(`{"event":"qrcode.updated","data":{"qrcode":{"base64":"..."}}}`), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, DirectionSystem, rec.Direction)
	assert.Equal(t, "QR Code atualizado", rec.Content)
}

func TestDecodeEventUnknownVariant(t *testing.T) {
	body := []byte(`{"event":"call","data":{"from":"5511"}}`)
	rec, err := DecodeEvent("k", body, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "call", rec.EventType)
	assert.Equal(t, DirectionSystem, rec.Direction)
	assert.JSONEq(t, string(body), string(rec.Raw))
}

func TestDecodeEventMissingEventField(t *testing.T) {
	rec, err := DecodeEvent("k", []byte(`{"data":{"foo":1}}`), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "unknown", rec.EventType)
}

func TestDecodeEventMalformedJSON(t *testing.T) {
	_, err := DecodeEvent("k", []byte(`{nope`), fixedNow)
	require.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	rec := Placeholder("clinica", fixedNow)
	assert.Equal(t, "test-message-1", rec.ID)
	assert.Equal(t, "clinica", rec.InstanceKey)
	assert.Equal(t, DirectionSystem, rec.Direction)
	assert.NotEmpty(t, rec.Content)
}
