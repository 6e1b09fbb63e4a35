package funnel

import (
	"encoding/json"
	"fmt"
)

// decodeBoard desserializa o documento persistido e aplica as migrações
// necessárias até a versão atual. O documento legado (sem campo version)
// corresponde ao formato que vivia no armazenamento do navegador.
func decodeBoard(document []byte) (Board, bool, error) {
	var board Board
	if err := json.Unmarshal(document, &board); err != nil {
		return Board{}, false, fmt.Errorf("funnel: documento inválido: %w", err)
	}

	migrated := false
	for board.Version < SchemaVersion {
		switch board.Version {
		case 0:
			board = migrateV0(board)
		default:
			return Board{}, false, fmt.Errorf("funnel: versão desconhecida: %d", board.Version)
		}
		migrated = true
	}

	return board, migrated, nil
}

// migrateV0 leva o documento legado à versão 1: garante unreadCount não
// negativo e descarta contatos apontando para estágios que não existem
// mais (o formato legado permitia ambos).
func migrateV0(board Board) Board {
	contacts := make([]Contact, 0, len(board.Contacts))
	for _, c := range board.Contacts {
		if !board.hasStage(c.StageID) {
			continue
		}
		if c.UnreadCount < 0 {
			c.UnreadCount = 0
		}
		if c.FunnelID == "" {
			c.FunnelID = funnelOfStage(board, c.StageID)
		}
		if !c.Status.Valid() {
			c.Status = StatusNeedsResponse
		}
		contacts = append(contacts, c)
	}
	board.Contacts = contacts
	board.Version = 1
	return board
}

func funnelOfStage(board Board, stageID string) string {
	for _, f := range board.Funnels {
		for _, s := range f.Stages {
			if s.ID == stageID {
				return f.ID
			}
		}
	}
	return ""
}
