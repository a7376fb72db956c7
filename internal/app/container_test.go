package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/pipeline/intake"
	"zcrm/pkg/logger"
)

type fakeAccountRepo struct {
	active []*account.Account
}

func (r *fakeAccountRepo) Create(ctx context.Context, acc *account.Account) error { return nil }
func (r *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}
func (r *fakeAccountRepo) GetByName(ctx context.Context, name string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}
func (r *fakeAccountRepo) List(ctx context.Context) ([]*account.Account, error) { return nil, nil }
func (r *fakeAccountRepo) ListActive(ctx context.Context) ([]*account.Account, error) {
	return r.active, nil
}
func (r *fakeAccountRepo) Update(ctx context.Context, acc *account.Account) error { return nil }
func (r *fakeAccountRepo) UpdateState(ctx context.Context, id uuid.UUID, state account.LifecycleState) error {
	return nil
}
func (r *fakeAccountRepo) UpdateJID(ctx context.Context, id uuid.UUID, jid string) error { return nil }
func (r *fakeAccountRepo) UpdateAutoReply(ctx context.Context, id uuid.UUID, enabled bool, delaySecs int, agentPrompt string) error {
	return nil
}
func (r *fakeAccountRepo) TouchActivity(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeAccountRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return false, nil
}
func (r *fakeAccountRepo) ListAuthenticated(ctx context.Context) ([]*account.Account, error) {
	return nil, nil
}
func (r *fakeAccountRepo) Deactivate(ctx context.Context, id uuid.UUID) error { return nil }

type fakeChatRepo struct {
	byAccount map[uuid.UUID][]*chat.Chat
}

func (r *fakeChatRepo) Upsert(ctx context.Context, c *chat.Chat) error { return nil }
func (r *fakeChatRepo) GetByJID(ctx context.Context, accountID uuid.UUID, chatJID string) (*chat.Chat, error) {
	return nil, chat.ErrChatNotFound
}
func (r *fakeChatRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error) {
	return r.byAccount[accountID], nil
}
func (r *fakeChatRepo) Assign(ctx context.Context, accountID uuid.UUID, chatJID, assignee string) error {
	return nil
}
func (r *fakeChatRepo) IncrementUnread(ctx context.Context, accountID uuid.UUID, chatJID string) error {
	return nil
}
func (r *fakeChatRepo) MarkRead(ctx context.Context, accountID uuid.UUID, chatJID string) error {
	return nil
}

type fakeMessageRepo struct {
	lastSeen string
	inserts  int
}

func (r *fakeMessageRepo) Insert(ctx context.Context, m *chat.Message) error {
	r.inserts++
	return nil
}
func (r *fakeMessageRepo) GetByMessageID(ctx context.Context, accountID uuid.UUID, chatJID, messageID string) (*chat.Message, error) {
	return nil, chat.ErrMessageNotFound
}
func (r *fakeMessageRepo) ListRecent(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*chat.Message, error) {
	return nil, nil
}
func (r *fakeMessageRepo) LastOutboundAfter(ctx context.Context, accountID uuid.UUID, chatJID string, after time.Time) (bool, error) {
	return false, nil
}
func (r *fakeMessageRepo) MarkProcessed(ctx context.Context, id uuid.UUID, analysis []byte) error {
	return nil
}
func (r *fakeMessageRepo) LastSeenMessageID(ctx context.Context, accountID uuid.UUID, chatJID string) (string, error) {
	return r.lastSeen, nil
}

func TestWarmIntakeMarkersPrimesDedupAtBoot(t *testing.T) {
	log := logger.SetupForTesting()
	accountID := uuid.New()
	chatJID := "5491122334455@s.whatsapp.net"

	accounts := &fakeAccountRepo{active: []*account.Account{{ID: accountID, IsActive: true}}}
	chats := &fakeChatRepo{byAccount: map[uuid.UUID][]*chat.Chat{
		accountID: {{ID: uuid.New(), AccountID: accountID, ChatJID: chatJID}},
	}}
	messages := &fakeMessageRepo{lastSeen: "m1"}

	c := &Container{
		AccountRepo: accounts,
		ChatRepo:    chats,
		MessageRepo: messages,
		Intake:      intake.NewIntake(messages, chats, time.Minute, log),
		Logger:      log,
	}

	require.NoError(t, c.WarmIntakeMarkers(context.Background()))

	// O transporte reentrega o último id já persistido após o restart: o
	// marcador aquecido barra a reentrega antes de qualquer insert.
	c.Intake.HandleMessageEvent(context.Background(), whatsapp.MessageEvent{
		AccountID: accountID,
		ChatJID:   chatJID,
		MessageID: "m1",
		Body:      "hola",
		Direction: chat.DirectionInbound,
		Timestamp: time.Now(),
	})

	assert.Equal(t, 0, messages.inserts)
}
