package postgres

import "github.com/ailum-crm/ailum/internal/storage/model"

// ErrNotFound reexporta o sentinela de model para que os serviços possam
// comparar com storage.ErrNotFound independente do driver.
var ErrNotFound = model.ErrNotFound
