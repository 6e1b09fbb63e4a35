package inbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// Direction classifica um registro do ponto de vista da instância.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
	DirectionSystem   Direction = "system"
)

// Tipos de evento reconhecidos do gateway. Qualquer outro valor é
// armazenado como evento opaco com apenas os campos genéricos.
const (
	EventMessagesUpsert   = "messages.upsert"
	EventConnectionUpdate = "connection.update"
	EventQRCodeUpdated    = "qrcode.updated"
)

// MessageRecord é um evento do gateway normalizado. Imutável depois de
// anexado ao buffer; o buffer só sofre prepend e truncagem.
type MessageRecord struct {
	ID          string          `json:"id"`
	InstanceKey string          `json:"instanceKey"`
	Direction   Direction       `json:"direction"`
	EventType   string          `json:"eventType"`
	Content     string          `json:"content"`
	Timestamp   string          `json:"timestamp"`
	Sender      string          `json:"sender,omitempty"`
	PushName    string          `json:"pushName,omitempty"`
	Raw         json.RawMessage `json:"raw"`
}

type eventEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type upsertData struct {
	Key struct {
		ID        string `json:"id"`
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`
	PushName string `json:"pushName"`
	Message  struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
	MessageTimestamp int64 `json:"messageTimestamp"`
}

type connectionData struct {
	State string `json:"state"`
}

// DecodeEvent transforma o envelope bruto do gateway em um MessageRecord.
// O envelope é uma união discriminada pelo campo literal `event`; cada
// variante reconhecida tem seu próprio decoder e o resto cai no fallback
// opaco. Corpo não-JSON retorna erro sem tocar o buffer.
func DecodeEvent(instanceKey string, body []byte, now time.Time) (MessageRecord, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return MessageRecord{}, fmt.Errorf("inbox: payload inválido: %w", err)
	}

	eventType := env.Event
	if eventType == "" {
		eventType = "unknown"
	}

	rec := MessageRecord{
		ID:          fmt.Sprintf("%d", now.UnixMilli()),
		InstanceKey: instanceKey,
		EventType:   eventType,
		Direction:   DirectionSystem,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Raw:         json.RawMessage(body),
	}

	switch eventType {
	case EventMessagesUpsert:
		var data upsertData
		if err := json.Unmarshal(env.Data, &data); err == nil {
			if data.Key.ID != "" {
				rec.ID = data.Key.ID
			}
			if data.Key.FromMe {
				rec.Direction = DirectionSent
			} else {
				rec.Direction = DirectionReceived
			}
			rec.Sender = data.Key.RemoteJid
			rec.PushName = data.PushName
			rec.Content = upsertText(data)
			if data.MessageTimestamp > 0 {
				rec.Timestamp = time.Unix(data.MessageTimestamp, 0).UTC().Format(time.RFC3339)
			}
		} else {
			rec.Content = "Sem texto"
		}

	case EventConnectionUpdate:
		state := "unknown"
		var data connectionData
		if err := json.Unmarshal(env.Data, &data); err == nil && data.State != "" {
			state = data.State
		}
		rec.Content = "Conexão: " + state

	case EventQRCodeUpdated:
		rec.Content = "QR Code atualizado"

	default:
		// Evento não reconhecido: só os campos genéricos, payload preservado.
		rec.Content = compactJSON(body)
	}

	return rec, nil
}

func upsertText(data upsertData) string {
	if data.Message.Conversation != "" {
		return data.Message.Conversation
	}
	if data.Message.ExtendedTextMessage != nil && data.Message.ExtendedTextMessage.Text != "" {
		return data.Message.ExtendedTextMessage.Text
	}
	return "Sem texto"
}

func compactJSON(body []byte) string {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(body)
	}
	return string(out)
}

// Placeholder é o registro sintetizado quando uma chave não tem eventos,
// para o cliente distinguir "nunca configurado" de "configurado e vazio".
func Placeholder(instanceKey string, now time.Time) MessageRecord {
	return MessageRecord{
		ID:          "test-message-1",
		InstanceKey: instanceKey,
		Direction:   DirectionSystem,
		EventType:   "system",
		Content:     "Esta é uma mensagem de teste do sistema. Se você está vendo isto, o armazenamento está funcionando, mas nenhuma mensagem real foi recebida ainda.",
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
}
