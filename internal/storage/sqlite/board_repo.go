package sqlite

import (
	"context"
	"time"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

type boardRepo struct {
	db *DB
}

// NewBoardRepository cria o repositório do documento de funis.
func NewBoardRepository(db *DB) *boardRepo {
	return &boardRepo{db: db}
}

func (r *boardRepo) Get(ctx context.Context, ownerID string) (model.Board, error) {
	query := `
		SELECT owner_id, document, updated_at
		FROM boards
		WHERE owner_id = ?
	`

	var board model.Board
	var updatedAt string

	err := r.db.Conn.QueryRowContext(ctx, query, ownerID).Scan(
		&board.OwnerID, &board.Document, &updatedAt,
	)
	if err != nil {
		return model.Board{}, mapError(err)
	}

	board.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return board, nil
}

// Save grava o documento inteiro; não há atualização parcial.
func (r *boardRepo) Save(ctx context.Context, ownerID string, document []byte) (model.Board, error) {
	now := time.Now()

	query := `
		INSERT INTO boards (owner_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`

	_, err := r.db.Conn.ExecContext(ctx, query, ownerID, document, now.Format(time.RFC3339))
	if err != nil {
		return model.Board{}, err
	}

	return model.Board{OwnerID: ownerID, Document: document, UpdatedAt: now}, nil
}
