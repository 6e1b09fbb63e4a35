package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

type userRepo struct {
	db *DB
}

// NewUserRepository cria um novo repositório de usuários.
func NewUserRepository(db *DB) *userRepo {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()

	query := `
		INSERT INTO users (id, first_name, last_name, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Conn.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Name, user.Email, user.PasswordHash, user.CreatedAt.Format(time.RFC3339),
	)

	if err != nil {
		return model.User{}, err
	}

	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	query := `
		SELECT id, first_name, last_name, name, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return r.scanOne(ctx, query, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `
		SELECT id, first_name, last_name, name, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return r.scanOne(ctx, query, email)
}

func (r *userRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var user model.User
	var createdAt string

	err := r.db.Conn.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Name, &user.Email, &user.PasswordHash, &createdAt,
	)
	if err != nil {
		return model.User{}, mapError(err)
	}

	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return user, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.Conn.ExecContext(ctx, `
		DELETE FROM users
		WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
