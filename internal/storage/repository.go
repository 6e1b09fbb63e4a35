package storage

import (
	"context"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

// ErrNotFound é o mesmo valor retornado pelos drivers sqlite e postgres;
// os serviços comparam com errors.Is sem conhecer o driver ativo.
var ErrNotFound = model.ErrNotFound

type UserRepository interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// BoardRepository persiste o documento de funis por dono. O documento é
// opaco para a camada de storage; a (de)serialização vive em internal/funnel.
type BoardRepository interface {
	Get(ctx context.Context, ownerID string) (model.Board, error)
	Save(ctx context.Context, ownerID string, document []byte) (model.Board, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, tpl model.MessageTemplate) (model.MessageTemplate, error)
	GetByID(ctx context.Context, ownerID, id string) (model.MessageTemplate, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.MessageTemplate, error)
	Update(ctx context.Context, tpl model.MessageTemplate) (model.MessageTemplate, error)
	Delete(ctx context.Context, ownerID, id string) error
}
