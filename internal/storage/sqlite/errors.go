package sqlite

import (
	"database/sql"
	"errors"

	"github.com/ailum-crm/ailum/internal/storage/model"
)

// ErrNotFound reexporta o sentinela de model para que os serviços possam
// comparar com storage.ErrNotFound independente do driver.
var ErrNotFound = model.ErrNotFound

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
