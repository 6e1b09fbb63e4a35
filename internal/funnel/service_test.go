package funnel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ailum-crm/ailum/internal/storage"
	"github.com/ailum-crm/ailum/internal/storage/model"
)

type fakeBoardRepo struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{docs: make(map[string][]byte)}
}

func (r *fakeBoardRepo) Get(ctx context.Context, ownerID string) (model.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[ownerID]
	if !ok {
		return model.Board{}, storage.ErrNotFound
	}
	return model.Board{OwnerID: ownerID, Document: doc, UpdatedAt: time.Now()}, nil
}

func (r *fakeBoardRepo) Save(ctx context.Context, ownerID string, document []byte) (model.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[ownerID] = document
	return model.Board{OwnerID: ownerID, Document: document, UpdatedAt: time.Now()}, nil
}

func newTestService() (*Service, *fakeBoardRepo) {
	repo := newFakeBoardRepo()
	return NewService(repo, nil, zap.NewNop()), repo
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestLoadSeedsDefaultBoard(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)

	require.Len(t, board.Funnels, 1)
	assert.Equal(t, "Funil Padrão", board.Funnels[0].Name)
	assert.Len(t, board.Funnels[0].Stages, 5)
	assert.Equal(t, SchemaVersion, board.Version)
	assert.Empty(t, board.Contacts)

	// O documento padrão fica persistido no primeiro acesso.
	assert.Contains(t, repo.docs, "dono")
}

func TestLoadMigratesLegacyDocument(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Documento legado: sem version, contato órfão e unreadCount negativo.
	repo.docs["dono"] = []byte(`{
		"funnels": [{"id": "f1", "name": "Vendas", "stages": [{"id": "s1", "name": "Entrada"}]}],
		"contacts": [
			{"id": "c1", "name": "Ana", "phone": "5511", "stageId": "s1", "status": "needs_response", "unreadCount": -2},
			{"id": "c2", "name": "Bia", "phone": "5522", "stageId": "apagado", "status": "needs_response"}
		]
	}`)

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, board.Version)
	require.Len(t, board.Contacts, 1)
	assert.Equal(t, "c1", board.Contacts[0].ID)
	assert.Equal(t, 0, board.Contacts[0].UnreadCount)
	assert.Equal(t, "f1", board.Contacts[0].FunnelID)

	// A migração é persistida; a segunda carga já lê a versão atual.
	board2, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	assert.Equal(t, board, board2)
}

func TestRecordInboundUnknownPhoneCreatesContact(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	contact, err := svc.RecordInbound(ctx, "dono", "5511987654321", "Maria", testNow)
	require.NoError(t, err)

	assert.Equal(t, "Maria", contact.Name)
	assert.Equal(t, "5511987654321", contact.Phone)
	assert.Equal(t, StatusNeedsResponse, contact.Status)
	assert.Equal(t, 1, contact.UnreadCount)

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	require.Len(t, board.Contacts, 1)
	assert.Equal(t, board.Funnels[0].Stages[0].ID, board.Contacts[0].StageID)
	assert.Equal(t, board.Funnels[0].ID, board.Contacts[0].FunnelID)
}

func TestRecordInboundWithoutPushNameUsesPhone(t *testing.T) {
	svc, _ := newTestService()

	contact, err := svc.RecordInbound(context.Background(), "dono", "5511987654321", "", testNow)
	require.NoError(t, err)
	assert.Equal(t, "5511987654321", contact.Name)
}

func TestRecordInboundKnownPhoneIncrementsUnread(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.RecordInbound(ctx, "dono", "5511987654321", "Maria", testNow)
	require.NoError(t, err)

	// Contato resolvido volta para needs_response na próxima mensagem.
	_, err = svc.UpdateContact(ctx, "dono", first.ID, UpdateContactInput{Status: StatusResolved})
	require.NoError(t, err)

	second, err := svc.RecordInbound(ctx, "dono", "+55 (11) 98765-4321", "Maria", testNow.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.UnreadCount)
	assert.Equal(t, StatusNeedsResponse, second.Status)

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	assert.Len(t, board.Contacts, 1)
}

func TestRecordOutboundKnownPhone(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	contact, err := svc.RecordInbound(ctx, "dono", "5511987654321", "Maria", testNow)
	require.NoError(t, err)

	require.NoError(t, svc.RecordOutbound(ctx, "dono", "5511987654321", testNow.Add(time.Minute)))

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	require.Len(t, board.Contacts, 1)
	assert.Equal(t, contact.ID, board.Contacts[0].ID)
	assert.Equal(t, StatusWaitingClient, board.Contacts[0].Status)
}

func TestRecordOutboundUnknownPhoneIsNoop(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RecordOutbound(ctx, "dono", "5500000000000", testNow))

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	assert.Empty(t, board.Contacts)
}

func TestCreateFunnelAndAddStage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateFunnel(ctx, "dono", CreateFunnelInput{
		Name:   "Pós-venda",
		Stages: []Stage{{Name: "Retorno"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Stages, 1)
	assert.NotEmpty(t, created.Stages[0].ID)

	stage, err := svc.AddStage(ctx, "dono", created.ID, Stage{Name: "Fidelizado"})
	require.NoError(t, err)
	assert.NotEmpty(t, stage.ID)

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	require.Len(t, board.Funnels, 2)
	assert.Len(t, board.Funnels[1].Stages, 2)
}

func TestDeleteFunnelRemovesItsContacts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	funnelID := board.Funnels[0].ID

	_, err = svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "Ana", Phone: "5511", FunnelID: funnelID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFunnel(ctx, "dono", funnelID))

	board, err = svc.Load(ctx, "dono")
	require.NoError(t, err)
	assert.Empty(t, board.Funnels)
	assert.Empty(t, board.Contacts)
}

func TestMoveContact(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	funnelID := board.Funnels[0].ID
	target := board.Funnels[0].Stages[2].ID

	contact, err := svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "Ana", Phone: "5511", FunnelID: funnelID,
	})
	require.NoError(t, err)

	moved, err := svc.MoveContact(ctx, "dono", contact.ID, target)
	require.NoError(t, err)
	assert.Equal(t, target, moved.StageID)

	_, err = svc.MoveContact(ctx, "dono", contact.ID, "inexistente")
	assert.ErrorIs(t, err, ErrStageNotFound)
}

func TestUpdateContactResetsValueToZero(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)

	contact, err := svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "Ana", Phone: "5511", FunnelID: board.Funnels[0].ID, Value: 1500,
	})
	require.NoError(t, err)

	// Sem Value no payload o campo fica como está.
	updated, err := svc.UpdateContact(ctx, "dono", contact.ID, UpdateContactInput{Name: "Ana Lima"})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, updated.Value)

	zero := 0.0
	updated, err = svc.UpdateContact(ctx, "dono", contact.ID, UpdateContactInput{Value: &zero})
	require.NoError(t, err)
	assert.Zero(t, updated.Value)
}

func TestCreateContactValidations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "Ana", Phone: "5511", FunnelID: "fantasma",
	})
	assert.ErrorIs(t, err, ErrFunnelNotFound)

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)

	_, err = svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "Ana", Phone: "5511", FunnelID: board.Funnels[0].ID, Status: "qualquer",
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestFilterContacts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	board, err := svc.Load(ctx, "dono")
	require.NoError(t, err)
	funnelID := board.Funnels[0].ID

	_, err = svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "Maria Silva", Phone: "(11) 98765-4321", Email: "maria@exemplo.com", FunnelID: funnelID,
	})
	require.NoError(t, err)
	_, err = svc.CreateContact(ctx, "dono", CreateContactInput{
		Name: "João Souza", Phone: "5521999990000", FunnelID: funnelID, Status: StatusResolved,
	})
	require.NoError(t, err)

	byName, err := svc.FilterContacts(ctx, "dono", Filter{Query: "maria"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Maria Silva", byName[0].Name)

	byPhone, err := svc.FilterContacts(ctx, "dono", Filter{Query: "11987654321"})
	require.NoError(t, err)
	assert.Len(t, byPhone, 1)

	byStatus, err := svc.FilterContacts(ctx, "dono", Filter{Status: StatusResolved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "João Souza", byStatus[0].Name)

	all, err := svc.FilterContacts(ctx, "dono", Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReplaceRejectsInvalidStatus(t *testing.T) {
	svc, _ := newTestService()

	board := DefaultBoard()
	board.Contacts = []Contact{{ID: "c1", Name: "X", Phone: "55", StageID: "novo-contato", Status: "invalido"}}

	_, err := svc.Replace(context.Background(), "dono", board)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOwnersAreIsolated(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, "dono-a", "5511", "Ana", testNow)
	require.NoError(t, err)

	board, err := svc.Load(ctx, "dono-b")
	require.NoError(t, err)
	assert.Empty(t, board.Contacts)
}
