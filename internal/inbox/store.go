package inbox

import "context"

// DefaultCap limita o número de registros retidos por chave de instância.
const DefaultCap = 100

// Store guarda o histórico recente de eventos por chave de instância,
// mais recente primeiro, limitado a um teto fixo. Também guarda o hash do
// token de webhook gerado no registro junto ao gateway, para que o
// receptor possa verificar chamadas subsequentes.
//
// Duas implementações: memória (processo único) e Redis (visão
// compartilhada entre réplicas, com TTL).
type Store interface {
	// Append insere o registro no início do buffer da chave e trunca ao teto.
	Append(ctx context.Context, key string, rec MessageRecord) error
	// List retorna um snapshot do buffer, mais recente primeiro. Chave sem
	// eventos retorna lista vazia sem erro; não há mutação na leitura.
	List(ctx context.Context, key string) ([]MessageRecord, error)
	// SetTokenHash registra o hash do token de webhook da chave.
	SetTokenHash(ctx context.Context, key, tokenHash string) error
	// TokenHash retorna o hash registrado, ou vazio quando não há token.
	TokenHash(ctx context.Context, key string) (string, error)
}
