package funnel

// SchemaVersion atual do documento de funis. Documentos antigos são
// migrados na carga (ver migrate.go).
const SchemaVersion = 1

// ContactStatus acompanha o estado da conversa com o contato.
type ContactStatus string

const (
	StatusNeedsResponse  ContactStatus = "needs_response"
	StatusInConversation ContactStatus = "in_conversation"
	StatusWaitingClient  ContactStatus = "waiting_client"
	StatusResolved       ContactStatus = "resolved"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case StatusNeedsResponse, StatusInConversation, StatusWaitingClient, StatusResolved:
		return true
	}
	return false
}

type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Funnel struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

type Contact struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email,omitempty"`
	Avatar       string        `json:"avatar,omitempty"`
	FunnelID     string        `json:"funnelId"`
	StageID      string        `json:"stageId"`
	Status       ContactStatus `json:"status"`
	LastActivity string        `json:"lastActivity"`
	UnreadCount  int           `json:"unreadCount"`
	Value        float64       `json:"value,omitempty"`
}

// Board é o documento completo de um dono: funis, estágios e contatos.
// Cada contato pertence a exatamente um estágio de um funil. Toda mutação
// reescreve o documento inteiro.
type Board struct {
	Version  int       `json:"version"`
	Funnels  []Funnel  `json:"funnels"`
	Contacts []Contact `json:"contacts"`
}

// DefaultBoard devolve o quadro semeado no primeiro acesso de um dono.
func DefaultBoard() Board {
	return Board{
		Version: SchemaVersion,
		Funnels: []Funnel{
			{
				ID:   "funil-padrao",
				Name: "Funil Padrão",
				Stages: []Stage{
					{ID: "novo-contato", Name: "Novo Contato", Color: "#3b82f6"},
					{ID: "interesse", Name: "Interesse", Color: "#8b5cf6"},
					{ID: "agendamento", Name: "Agendamento", Color: "#f59e0b"},
					{ID: "confirmacao", Name: "Confirmação", Color: "#10b981"},
					{ID: "concluido", Name: "Concluído", Color: "#6b7280"},
				},
			},
		},
		Contacts: []Contact{},
	}
}

func (b Board) findFunnel(id string) *Funnel {
	for i := range b.Funnels {
		if b.Funnels[i].ID == id {
			return &b.Funnels[i]
		}
	}
	return nil
}

func (b Board) findContact(id string) *Contact {
	for i := range b.Contacts {
		if b.Contacts[i].ID == id {
			return &b.Contacts[i]
		}
	}
	return nil
}

func (b Board) hasStage(stageID string) bool {
	for _, f := range b.Funnels {
		for _, s := range f.Stages {
			if s.ID == stageID {
				return true
			}
		}
	}
	return false
}
