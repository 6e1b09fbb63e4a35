package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ailum-crm/ailum/internal/storage"
	"github.com/ailum-crm/ailum/internal/storage/model"
)

var (
	ErrMissingFields      = errors.New("todos os campos são obrigatórios")
	ErrWeakPassword       = errors.New("a senha deve ter pelo menos 8 caracteres")
	ErrEmailInUse         = errors.New("este email já está em uso")
	ErrInvalidCredentials = errors.New("email ou senha inválidos")
)

type Service struct {
	secret   string
	expHours int
	users    storage.UserRepository
}

func NewService(secret string, expHours int, users storage.UserRepository) *Service {
	return &Service{secret: secret, expHours: expHours, users: users}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register valida os campos, garante unicidade do email e grava o usuário
// com a senha em hash. O hash nunca sai serializado do modelo.
func (s *Service) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if firstName == "" || lastName == "" || email == "" || input.Password == "" {
		return model.User{}, ErrMissingFields
	}
	if len(input.Password) < 8 {
		return model.User{}, ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, ErrEmailInUse
	} else if !errors.Is(err, storage.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		FirstName:    firstName,
		LastName:     lastName,
		Name:         firstName + " " + lastName,
		Email:        email,
		PasswordHash: string(hash),
	}
	return s.users.Create(ctx, user)
}

// Login verifica as credenciais e emite um JWT com o id do usuário em sub.
func (s *Service) Login(ctx context.Context, email, password string) (string, model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", model.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(s.expHours) * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", model.User{}, err
	}

	return token, user, nil
}
