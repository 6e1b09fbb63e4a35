package funnel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/storage"
)

var (
	ErrFunnelNotFound  = errors.New("funil não encontrado")
	ErrStageNotFound   = errors.New("estágio não encontrado")
	ErrContactNotFound = errors.New("contato não encontrado")
	ErrInvalidStatus   = errors.New("status inválido")
	ErrBoardBusy       = errors.New("quadro ocupado por outra escrita")
)

// Locker serializa uma seção crítica nomeada. A implementação Redis
// (storage/redis.Lock) cobre o caso multi-réplica; sem ela, o mutex por
// dono dentro do serviço basta para um processo só.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockerFactory produz um Locker para a chave dada, ou nil quando locking
// distribuído está desabilitado.
type LockerFactory func(key string) Locker

// Service mantém o documento de funis por dono. Toda mutação é
// load → modificar → regravar o documento inteiro.
type Service struct {
	repo     storage.BoardRepository
	newLock  LockerFactory
	log      *zap.Logger
	ownerMu  sync.Mutex
	ownerSet map[string]*sync.Mutex
}

func NewService(repo storage.BoardRepository, newLock LockerFactory, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		newLock:  newLock,
		log:      log,
		ownerSet: make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockFor(ownerID string) *sync.Mutex {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	mu, ok := s.ownerSet[ownerID]
	if !ok {
		mu = &sync.Mutex{}
		s.ownerSet[ownerID] = mu
	}
	return mu
}

// Load retorna o quadro do dono, semeando o padrão no primeiro acesso e
// persistindo migrações de esquema aplicadas na carga.
func (s *Service) Load(ctx context.Context, ownerID string) (Board, error) {
	stored, err := s.repo.Get(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		board := DefaultBoard()
		if err := s.save(ctx, ownerID, board); err != nil {
			return Board{}, err
		}
		return board, nil
	}
	if err != nil {
		return Board{}, err
	}

	board, migrated, err := decodeBoard(stored.Document)
	if err != nil {
		return Board{}, err
	}
	if migrated {
		s.log.Info("funnel: documento migrado na carga",
			zap.String("owner", ownerID),
			zap.Int("version", board.Version),
		)
		if err := s.save(ctx, ownerID, board); err != nil {
			return Board{}, err
		}
	}
	return board, nil
}

func (s *Service) save(ctx context.Context, ownerID string, board Board) error {
	document, err := json.Marshal(board)
	if err != nil {
		return err
	}
	_, err = s.repo.Save(ctx, ownerID, document)
	return err
}

// mutate executa fn sob o lock do dono e regrava o documento completo.
func (s *Service) mutate(ctx context.Context, ownerID string, fn func(*Board) error) (Board, error) {
	mu := s.lockFor(ownerID)
	mu.Lock()
	defer mu.Unlock()

	if s.newLock != nil {
		if lock := s.newLock("funnel:board:" + ownerID); lock != nil {
			acquired, err := lock.Acquire(ctx)
			if err != nil {
				return Board{}, err
			}
			if !acquired {
				return Board{}, ErrBoardBusy
			}
			defer func() {
				if err := lock.Release(ctx); err != nil {
					s.log.Warn("funnel: falha ao liberar lock", zap.String("owner", ownerID), zap.Error(err))
				}
			}()
		}
	}

	board, err := s.Load(ctx, ownerID)
	if err != nil {
		return Board{}, err
	}
	if err := fn(&board); err != nil {
		return Board{}, err
	}
	if err := s.save(ctx, ownerID, board); err != nil {
		return Board{}, err
	}
	return board, nil
}

// Replace substitui o documento inteiro (PUT do quadro).
func (s *Service) Replace(ctx context.Context, ownerID string, board Board) (Board, error) {
	board.Version = SchemaVersion
	for i := range board.Contacts {
		if !board.Contacts[i].Status.Valid() {
			return Board{}, ErrInvalidStatus
		}
	}
	return s.mutate(ctx, ownerID, func(current *Board) error {
		*current = board
		return nil
	})
}

type CreateFunnelInput struct {
	Name   string
	Stages []Stage
}

func (s *Service) CreateFunnel(ctx context.Context, ownerID string, input CreateFunnelInput) (Funnel, error) {
	created := Funnel{
		ID:     uuid.NewString(),
		Name:   input.Name,
		Stages: input.Stages,
	}
	for i := range created.Stages {
		if created.Stages[i].ID == "" {
			created.Stages[i].ID = uuid.NewString()
		}
	}

	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		board.Funnels = append(board.Funnels, created)
		return nil
	})
	if err != nil {
		return Funnel{}, err
	}
	return created, nil
}

func (s *Service) RenameFunnel(ctx context.Context, ownerID, funnelID, name string) (Funnel, error) {
	var renamed Funnel
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		f := board.findFunnel(funnelID)
		if f == nil {
			return ErrFunnelNotFound
		}
		f.Name = name
		renamed = *f
		return nil
	})
	return renamed, err
}

// DeleteFunnel remove o funil e todos os contatos presos a ele.
func (s *Service) DeleteFunnel(ctx context.Context, ownerID, funnelID string) error {
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		idx := -1
		for i := range board.Funnels {
			if board.Funnels[i].ID == funnelID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrFunnelNotFound
		}
		board.Funnels = append(board.Funnels[:idx], board.Funnels[idx+1:]...)

		contacts := board.Contacts[:0]
		for _, c := range board.Contacts {
			if c.FunnelID != funnelID {
				contacts = append(contacts, c)
			}
		}
		board.Contacts = contacts
		return nil
	})
	return err
}

func (s *Service) AddStage(ctx context.Context, ownerID, funnelID string, stage Stage) (Stage, error) {
	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		f := board.findFunnel(funnelID)
		if f == nil {
			return ErrFunnelNotFound
		}
		f.Stages = append(f.Stages, stage)
		return nil
	})
	if err != nil {
		return Stage{}, err
	}
	return stage, nil
}

type CreateContactInput struct {
	Name     string
	Phone    string
	Email    string
	FunnelID string
	StageID  string
	Status   ContactStatus
	Value    float64
}

func (s *Service) CreateContact(ctx context.Context, ownerID string, input CreateContactInput) (Contact, error) {
	status := input.Status
	if status == "" {
		status = StatusNeedsResponse
	}
	if !status.Valid() {
		return Contact{}, ErrInvalidStatus
	}

	contact := Contact{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		FunnelID:     input.FunnelID,
		StageID:      input.StageID,
		Status:       status,
		LastActivity: time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		f := board.findFunnel(input.FunnelID)
		if f == nil {
			return ErrFunnelNotFound
		}
		if contact.StageID == "" {
			if len(f.Stages) == 0 {
				return ErrStageNotFound
			}
			contact.StageID = f.Stages[0].ID
		} else if !board.hasStage(contact.StageID) {
			return ErrStageNotFound
		}
		contact.Value = input.Value
		board.Contacts = append(board.Contacts, contact)
		return nil
	})
	if err != nil {
		return Contact{}, err
	}
	return contact, nil
}

// UpdateContactInput distingue campo ausente de valor zero: Value usa
// ponteiro para permitir zerar o valor negociado de um contato.
type UpdateContactInput struct {
	Name   string
	Phone  string
	Email  string
	Status ContactStatus
	Value  *float64
}

func (s *Service) UpdateContact(ctx context.Context, ownerID, contactID string, input UpdateContactInput) (Contact, error) {
	if input.Status != "" && !input.Status.Valid() {
		return Contact{}, ErrInvalidStatus
	}
	var updated Contact
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		c := board.findContact(contactID)
		if c == nil {
			return ErrContactNotFound
		}
		if input.Name != "" {
			c.Name = input.Name
		}
		if input.Phone != "" {
			c.Phone = input.Phone
		}
		if input.Email != "" {
			c.Email = input.Email
		}
		if input.Status != "" {
			c.Status = input.Status
		}
		if input.Value != nil {
			c.Value = *input.Value
		}
		c.LastActivity = time.Now().UTC().Format(time.RFC3339)
		updated = *c
		return nil
	})
	return updated, err
}

// MoveContact realoca o contato para outro estágio (drag-and-drop).
func (s *Service) MoveContact(ctx context.Context, ownerID, contactID, stageID string) (Contact, error) {
	var moved Contact
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		c := board.findContact(contactID)
		if c == nil {
			return ErrContactNotFound
		}
		if !board.hasStage(stageID) {
			return ErrStageNotFound
		}
		c.StageID = stageID
		c.FunnelID = funnelOfStage(*board, stageID)
		c.LastActivity = time.Now().UTC().Format(time.RFC3339)
		moved = *c
		return nil
	})
	return moved, err
}

func (s *Service) DeleteContact(ctx context.Context, ownerID, contactID string) error {
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		for i := range board.Contacts {
			if board.Contacts[i].ID == contactID {
				board.Contacts = append(board.Contacts[:i], board.Contacts[i+1:]...)
				return nil
			}
		}
		return ErrContactNotFound
	})
	return err
}

type Filter struct {
	FunnelID string
	StageID  string
	Status   ContactStatus
	Query    string
}

// FilterContacts recalcula a visão filtrada sob demanda: funil, estágio,
// status e busca livre sobre nome, telefone e email.
func (s *Service) FilterContacts(ctx context.Context, ownerID string, filter Filter) ([]Contact, error) {
	board, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]Contact, 0, len(board.Contacts))
	for _, c := range board.Contacts {
		if filter.FunnelID != "" && c.FunnelID != filter.FunnelID {
			continue
		}
		if filter.StageID != "" && c.StageID != filter.StageID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if query != "" && !contactMatches(c, query) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func contactMatches(c Contact, query string) bool {
	if strings.Contains(strings.ToLower(c.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Email), query) {
		return true
	}
	if digits := digitsOnly(query); digits != "" && strings.Contains(digitsOnly(c.Phone), digits) {
		return true
	}
	return false
}

// RecordInbound aplica a regra de mensagem recebida: número desconhecido
// cria contato no primeiro estágio do primeiro funil com needs_response e
// unreadCount 1; número conhecido incrementa unreadCount e volta para
// needs_response independente do status anterior.
func (s *Service) RecordInbound(ctx context.Context, ownerID, phone, pushName string, now time.Time) (Contact, error) {
	var touched Contact
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		activity := now.UTC().Format(time.RFC3339)

		if c := findByPhone(board, phone); c != nil {
			c.UnreadCount++
			c.Status = StatusNeedsResponse
			c.LastActivity = activity
			touched = *c
			return nil
		}

		if len(board.Funnels) == 0 || len(board.Funnels[0].Stages) == 0 {
			return ErrStageNotFound
		}
		first := board.Funnels[0]

		name := pushName
		if name == "" {
			name = phone
		}
		contact := Contact{
			ID:           uuid.NewString(),
			Name:         name,
			Phone:        phone,
			FunnelID:     first.ID,
			StageID:      first.Stages[0].ID,
			Status:       StatusNeedsResponse,
			LastActivity: activity,
			UnreadCount:  1,
		}
		board.Contacts = append(board.Contacts, contact)
		touched = contact
		return nil
	})
	return touched, err
}

// RecordOutbound aplica a regra de mensagem enviada: contato conhecido
// passa para waiting_client. Número desconhecido não cria contato.
func (s *Service) RecordOutbound(ctx context.Context, ownerID, phone string, now time.Time) error {
	_, err := s.mutate(ctx, ownerID, func(board *Board) error {
		if c := findByPhone(board, phone); c != nil {
			c.Status = StatusWaitingClient
			c.LastActivity = now.UTC().Format(time.RFC3339)
		}
		return nil
	})
	return err
}

// findByPhone compara identidades só por dígitos: "+55 11 98765-4321" e
// "5511987654321" são o mesmo contato.
func findByPhone(board *Board, phone string) *Contact {
	want := digitsOnly(phone)
	if want == "" {
		return nil
	}
	for i := range board.Contacts {
		if digitsOnly(board.Contacts[i].Phone) == want {
			return &board.Contacts[i]
		}
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
