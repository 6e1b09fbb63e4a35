package model

import "time"

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Board é o documento de funis/contatos de um usuário, gravado como
// um único blob JSON. Toda mutação reescreve o documento inteiro.
type Board struct {
	OwnerID   string    `json:"ownerId"`
	Document  []byte    `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MessageTemplate struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	IsStarred bool      `json:"isStarred"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
