package gateway

import (
	"encoding/json"
	"time"
)

// MessageKey identifica uma mensagem no gateway.
type MessageKey struct {
	ID        string `json:"id"`
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
}

type mediaPart struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

// messagePayload é a união de variantes que o gateway usa para o corpo de
// uma mensagem, discriminada pelo campo presente.
type messagePayload struct {
	Conversation        string     `json:"conversation"`
	ExtendedTextMessage *mediaPart `json:"extendedTextMessage"`
	ImageMessage        *mediaPart `json:"imageMessage"`
	VideoMessage        *mediaPart `json:"videoMessage"`
	AudioMessage        *mediaPart `json:"audioMessage"`
	DocumentMessage     *mediaPart `json:"documentMessage"`
	StickerMessage      *mediaPart `json:"stickerMessage"`
}

type storedMessage struct {
	ID               string          `json:"id"`
	Key              MessageKey      `json:"key"`
	MessageType      string          `json:"messageType"`
	PushName         string          `json:"pushName"`
	MessageTimestamp int64           `json:"messageTimestamp"`
	Message          *messagePayload `json:"message"`
	Conversation     string          `json:"conversation"`
}

// FindMessagesPage é a resposta paginada de FindMessages já normalizada.
type FindMessagesPage struct {
	Total       int                 `json:"total"`
	Pages       int                 `json:"pages"`
	CurrentPage int                 `json:"currentPage"`
	Records     []NormalizedMessage `json:"records"`
}

// NormalizedMessage é o formato uniforme consumido pelo frontend:
// {content, mediaUrl, mediaType} independente da variante do upstream.
type NormalizedMessage struct {
	ID               string          `json:"id"`
	Key              MessageKey      `json:"key"`
	MessageType      string          `json:"messageType,omitempty"`
	Timestamp        string          `json:"timestamp,omitempty"`
	Type             string          `json:"type"`
	PushName         string          `json:"pushName,omitempty"`
	MessageTimestamp int64           `json:"messageTimestamp,omitempty"`
	Content          string          `json:"content"`
	MediaURL         string          `json:"mediaUrl"`
	MediaType        string          `json:"mediaType"`
	Conversation     string          `json:"conversation,omitempty"`
	RawData          json.RawMessage `json:"rawData"`
}

// ParseFindMessages decodifica a resposta bruta de FindMessages e normaliza
// cada registro na forma uniforme do frontend.
func ParseFindMessages(raw json.RawMessage) (FindMessagesPage, error) {
	var envelope struct {
		Messages struct {
			Total       int               `json:"total"`
			Pages       int               `json:"pages"`
			CurrentPage int               `json:"currentPage"`
			Records     []json.RawMessage `json:"records"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return FindMessagesPage{}, err
	}

	page := FindMessagesPage{
		Total:       envelope.Messages.Total,
		Pages:       envelope.Messages.Pages,
		CurrentPage: envelope.Messages.CurrentPage,
		Records:     make([]NormalizedMessage, 0, len(envelope.Messages.Records)),
	}

	for _, rec := range envelope.Messages.Records {
		var msg storedMessage
		if err := json.Unmarshal(rec, &msg); err != nil {
			continue
		}
		page.Records = append(page.Records, normalizeRecord(msg, rec))
	}

	return page, nil
}

func normalizeRecord(msg storedMessage, raw json.RawMessage) NormalizedMessage {
	out := NormalizedMessage{
		ID:               msg.ID,
		Key:              msg.Key,
		MessageType:      msg.MessageType,
		PushName:         msg.PushName,
		MessageTimestamp: msg.MessageTimestamp,
		RawData:          raw,
	}

	if msg.Key.FromMe {
		out.Type = "sent"
	} else {
		out.Type = "received"
	}

	if msg.MessageTimestamp > 0 {
		out.Timestamp = time.Unix(msg.MessageTimestamp, 0).UTC().Format(time.RFC3339)
	}

	body := msg.Message
	switch {
	case body != nil && body.Conversation != "":
		out.Content = body.Conversation
		out.MediaType = "text"
		out.Conversation = body.Conversation
	case body != nil && body.ImageMessage != nil:
		out.Content = captionOr(body.ImageMessage.Caption, "[Imagem]")
		out.MediaURL = body.ImageMessage.URL
		out.MediaType = "image"
	case body != nil && body.VideoMessage != nil:
		out.Content = captionOr(body.VideoMessage.Caption, "[Vídeo]")
		out.MediaURL = body.VideoMessage.URL
		out.MediaType = "video"
	case body != nil && body.AudioMessage != nil:
		out.Content = "[Áudio]"
		out.MediaURL = body.AudioMessage.URL
		out.MediaType = "audio"
	case body != nil && body.DocumentMessage != nil:
		out.Content = captionOr(body.DocumentMessage.FileName, "[Documento]")
		out.MediaURL = body.DocumentMessage.URL
		out.MediaType = "document"
	case body != nil && body.StickerMessage != nil:
		out.Content = "[Sticker]"
		out.MediaURL = body.StickerMessage.URL
		out.MediaType = "sticker"
	case body != nil && body.ExtendedTextMessage != nil:
		out.Content = body.ExtendedTextMessage.Text
		out.MediaType = "text"
	case msg.Conversation != "":
		out.Content = msg.Conversation
		out.MediaType = "text"
	default:
		out.Content = "[Mensagem não suportada]"
	}

	return out
}

func captionOr(caption, fallback string) string {
	if caption != "" {
		return caption
	}
	return fallback
}
