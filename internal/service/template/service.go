package template

import (
	"context"
	"errors"
	"strings"

	"github.com/ailum-crm/ailum/internal/storage"
	"github.com/ailum-crm/ailum/internal/storage/model"
)

var (
	ErrInvalidTitle    = errors.New("título do modelo é obrigatório")
	ErrInvalidCategory = errors.New("categoria inválida")
)

// Categorias fixas dos modelos de mensagem.
var Categories = []string{"Geral", "Agendamento", "Informações", "Acompanhamento", "Marketing"}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Service struct {
	repo storage.TemplateRepository
}

func NewService(repo storage.TemplateRepository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Title    string
	Content  string
	Category string
}

func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (model.MessageTemplate, error) {
	if strings.TrimSpace(input.Title) == "" {
		return model.MessageTemplate{}, ErrInvalidTitle
	}
	category := input.Category
	if category == "" {
		category = "Geral"
	}
	if !validCategory(category) {
		return model.MessageTemplate{}, ErrInvalidCategory
	}

	return s.repo.Create(ctx, model.MessageTemplate{
		OwnerID:  ownerID,
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		Category: category,
	})
}

type ListFilter struct {
	Category string
	Query    string
}

// List filtra por categoria ("Todos" e vazio não filtram) e busca livre
// sobre título e conteúdo.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]model.MessageTemplate, error) {
	templates, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]model.MessageTemplate, 0, len(templates))
	for _, tpl := range templates {
		if filter.Category != "" && filter.Category != "Todos" && tpl.Category != filter.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(tpl.Title), query) &&
			!strings.Contains(strings.ToLower(tpl.Content), query) {
			continue
		}
		out = append(out, tpl)
	}
	return out, nil
}

type UpdateInput struct {
	Title    string
	Content  string
	Category string
}

func (s *Service) Update(ctx context.Context, ownerID, id string, input UpdateInput) (model.MessageTemplate, error) {
	tpl, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return model.MessageTemplate{}, err
	}

	if input.Title != "" {
		tpl.Title = strings.TrimSpace(input.Title)
	}
	if input.Content != "" {
		tpl.Content = input.Content
	}
	if input.Category != "" {
		if !validCategory(input.Category) {
			return model.MessageTemplate{}, ErrInvalidCategory
		}
		tpl.Category = input.Category
	}

	return s.repo.Update(ctx, tpl)
}

// ToggleStar inverte o destaque do modelo.
func (s *Service) ToggleStar(ctx context.Context, ownerID, id string) (model.MessageTemplate, error) {
	tpl, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return model.MessageTemplate{}, err
	}
	tpl.IsStarred = !tpl.IsStarred
	return s.repo.Update(ctx, tpl)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}
