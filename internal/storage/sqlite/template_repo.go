package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

type templateRepo struct {
	db *DB
}

// NewTemplateRepository cria o repositório de modelos de mensagem.
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Conn.ExecContext(ctx, query,
		tpl.ID, tpl.OwnerID, tpl.Title, tpl.Content, tpl.Category, tpl.IsStarred,
		tpl.CreatedAt.Format(time.RFC3339), tpl.UpdatedAt.Format(time.RFC3339),
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
		WHERE owner_id = ? AND id = ?
	`

	var tpl model.MessageTemplate
	var createdAt, updatedAt string

	err := r.db.Conn.QueryRowContext(ctx, query, ownerID, id).Scan(
		&tpl.ID, &tpl.OwnerID, &tpl.Title, &tpl.Content, &tpl.Category, &tpl.IsStarred, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.MessageTemplate{}, mapError(err)
	}

	tpl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	tpl.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return tpl, nil
}

func (r *templateRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.MessageTemplate, error) {
	query := `
		SELECT id, owner_id, title, content, category, is_starred, created_at, updated_at
		FROM message_templates
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Conn.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []model.MessageTemplate
	for rows.Next() {
		var tpl model.MessageTemplate
		var createdAt, updatedAt string

		if err := rows.Scan(
			&tpl.ID, &tpl.OwnerID, &tpl.Title, &tpl.Content, &tpl.Category, &tpl.IsStarred, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		tpl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tpl.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}

func (r *templateRepo) Update(ctx context.Context, tpl model.MessageTemplate) (model.MessageTemplate, error) {
	tpl.UpdatedAt = time.Now()

	result, err := r.db.Conn.ExecContext(ctx, `
		UPDATE message_templates
		SET title = ?, content = ?, category = ?, is_starred = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`, tpl.Title, tpl.Content, tpl.Category, tpl.IsStarred, tpl.UpdatedAt.Format(time.RFC3339), tpl.OwnerID, tpl.ID)
	if err != nil {
		return model.MessageTemplate{}, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.MessageTemplate{}, ErrNotFound
	}
	return tpl, nil
}

func (r *templateRepo) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.Conn.ExecContext(ctx, `
		DELETE FROM message_templates
		WHERE owner_id = ? AND id = ?
	`, ownerID, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
