package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

type boardRepo struct {
	db *DB
}

func NewBoardRepository(db *DB) *boardRepo {
	return &boardRepo{db: db}
}

func (r *boardRepo) Get(ctx context.Context, ownerID string) (model.Board, error) {
	query := `
		SELECT owner_id, document, updated_at
		FROM boards
		WHERE owner_id = $1
	`

	var board model.Board

	err := r.db.Pool.QueryRow(ctx, query, ownerID).Scan(
		&board.OwnerID, &board.Document, &board.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return model.Board{}, ErrNotFound
	}
	if err != nil {
		return model.Board{}, err
	}
	return board, nil
}

// Save grava o documento inteiro; não há atualização parcial.
func (r *boardRepo) Save(ctx context.Context, ownerID string, document []byte) (model.Board, error) {
	now := time.Now()

	query := `
		INSERT INTO boards (owner_id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool.Exec(ctx, query, ownerID, document, now)
	if err != nil {
		return model.Board{}, err
	}

	return model.Board{OwnerID: ownerID, Document: document, UpdatedAt: now}, nil
}
