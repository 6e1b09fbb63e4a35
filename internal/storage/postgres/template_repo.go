package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

type templateRepo struct {
	db *DB
}

func NewTemplateRepository(db *DB) *templateRepo {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, tpl model.MessageTemplate) (model.MessageTemplate, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	query := `
		INSERT INTO message_templates (id, owner_id, title, content, category, is_starred, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		tpl.ID, tpl.OwnerID, tpl.Title, tpl.Content, tpl.Category, tpl.IsStarred, tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		return model.MessageTemplate{}, err
	}

	return tpl, nil
}

func (r *templateRepo) GetByID(ctx context.Context, ownerID, id string) (model.MessageTemplate, error) {
	query := `
		SELECT id, owner_id, title, content, category, is_starred, created_at, updated_at
		FROM message_templates
		WHERE owner_id = $1 AND id = $2
	`

	var tpl model.MessageTemplate

	err := r.db.Pool.QueryRow(ctx, query, ownerID, id).Scan(
		&tpl.ID, &tpl.OwnerID, &tpl.Title, &tpl.Content, &tpl.Category, &tpl.IsStarred, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return model.MessageTemplate{}, ErrNotFound
	}
	if err != nil {
		return model.MessageTemplate{}, err
	}
	return tpl, nil
}

func (r *templateRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.MessageTemplate, error) {
	query := `
		SELECT id, owner_id, title, content, category, is_starred, created_at, updated_at
		FROM message_templates
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []model.MessageTemplate
	for rows.Next() {
		var tpl model.MessageTemplate
		if err := rows.Scan(
			&tpl.ID, &tpl.OwnerID, &tpl.Title, &tpl.Content, &tpl.Category, &tpl.IsStarred, &tpl.CreatedAt, &tpl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}

func (r *templateRepo) Update(ctx context.Context, tpl model.MessageTemplate) (model.MessageTemplate, error) {
	tpl.UpdatedAt = time.Now()

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE message_templates
		SET title = $1, content = $2, category = $3, is_starred = $4, updated_at = $5
		WHERE owner_id = $6 AND id = $7
	`, tpl.Title, tpl.Content, tpl.Category, tpl.IsStarred, tpl.UpdatedAt, tpl.OwnerID, tpl.ID)
	if err != nil {
		return model.MessageTemplate{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.MessageTemplate{}, ErrNotFound
	}
	return tpl, nil
}

func (r *templateRepo) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM message_templates
		WHERE owner_id = $1 AND id = $2
	`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
