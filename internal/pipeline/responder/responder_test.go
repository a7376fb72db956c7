package responder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/pipeline/analyzer"
	"zcrm/pkg/logger"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
}

func (r *fakeAccountRepo) put(acc *account.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[acc.ID] = acc
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[id]; ok {
		copied := *acc
		return &copied, nil
	}
	return nil, account.ErrAccountNotFound
}

func (r *fakeAccountRepo) Create(ctx context.Context, acc *account.Account) error { return nil }
func (r *fakeAccountRepo) GetByName(ctx context.Context, name string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}
func (r *fakeAccountRepo) List(ctx context.Context) ([]*account.Account, error)       { return nil, nil }
func (r *fakeAccountRepo) ListActive(ctx context.Context) ([]*account.Account, error) { return nil, nil }
func (r *fakeAccountRepo) Update(ctx context.Context, acc *account.Account) error     { return nil }
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
	mu    sync.Mutex
	chats map[string]*chat.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*chat.Chat)}
}

func (r *fakeChatRepo) put(c *chat.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[c.ChatJID] = c
}

func (r *fakeChatRepo) GetByJID(ctx context.Context, accountID uuid.UUID, chatJID string) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[chatJID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, chat.ErrChatNotFound
}

func (r *fakeChatRepo) Upsert(ctx context.Context, c *chat.Chat) error { return nil }
func (r *fakeChatRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error) {
	return nil, nil
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
	mu            sync.Mutex
	outboundAfter bool
	outbound      []*chat.Message
	recent        []*chat.Message
}

func (r *fakeMessageRepo) setOutboundAfter(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outboundAfter = v
}

func (r *fakeMessageRepo) addOutbound(ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outbound = append(r.outbound, &chat.Message{
		ID:        uuid.New(),
		Direction: chat.DirectionOutbound,
		Timestamp: ts,
	})
}

func (r *fakeMessageRepo) Insert(ctx context.Context, m *chat.Message) error { return nil }
func (r *fakeMessageRepo) GetByMessageID(ctx context.Context, accountID uuid.UUID, chatJID, messageID string) (*chat.Message, error) {
	return nil, chat.ErrMessageNotFound
}
func (r *fakeMessageRepo) ListRecent(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recent, nil
}
func (r *fakeMessageRepo) LastOutboundAfter(ctx context.Context, accountID uuid.UUID, chatJID string, after time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outboundAfter {
		return true, nil
	}
	// Comparação inclusiva, como a query real: mesmo segundo conta.
	for _, m := range r.outbound {
		if !m.Timestamp.Before(after) {
			return true, nil
		}
	}
	return false, nil
}
func (r *fakeMessageRepo) MarkProcessed(ctx context.Context, id uuid.UUID, analysis []byte) error {
	return nil
}
func (r *fakeMessageRepo) LastSeenMessageID(ctx context.Context, accountID uuid.UUID, chatJID string) (string, error) {
	return "", nil
}

// fakeManager captura os envios despachados ao transporte
type fakeManager struct {
	mu    sync.Mutex
	sends []string
}

func (m *fakeManager) SendMessage(ctx context.Context, accountID uuid.UUID, chatJID, body string) (*whatsapp.SendAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, body)
	return &whatsapp.SendAck{MessageID: uuid.NewString(), Timestamp: time.Now()}, nil
}

func (m *fakeManager) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

func (m *fakeManager) Initialize(ctx context.Context, accountID uuid.UUID) (*whatsapp.Status, error) {
	return nil, nil
}
func (m *fakeManager) GetStatus(accountID uuid.UUID) (*whatsapp.Status, error) { return nil, nil }
func (m *fakeManager) ListChats(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error) {
	return nil, nil
}
func (m *fakeManager) FetchMessages(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*chat.Message, error) {
	return nil, nil
}
func (m *fakeManager) Disconnect(accountID uuid.UUID) error { return nil }
func (m *fakeManager) Reconnect(ctx context.Context, accountID uuid.UUID) (*whatsapp.Status, error) {
	return nil, nil
}
func (m *fakeManager) GetQRCode(ctx context.Context, accountID uuid.UUID) (string, error) {
	return "", nil
}
func (m *fakeManager) RemoveSession(accountID uuid.UUID) error { return nil }

type fixture struct {
	responder *Responder
	accounts  *fakeAccountRepo
	chats     *fakeChatRepo
	messages  *fakeMessageRepo
	manager   *fakeManager
	account   *account.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accounts := newFakeAccountRepo()
	chats := newFakeChatRepo()
	messages := &fakeMessageRepo{}
	manager := &fakeManager{}
	anlz := analyzer.NewAnalyzer(nil, false, 1, logger.SetupForTesting())

	acc := &account.Account{
		ID:             uuid.New(),
		Name:           "suporte",
		State:          account.StateReady,
		AutoReply:      true,
		ReplyDelaySecs: 0, // usa o atraso padrão do fixture
		IsActive:       true,
	}
	accounts.put(acc)

	r := NewResponder(accounts, chats, messages, anlz, manager, 15, 50*time.Millisecond, logger.SetupForTesting())
	return &fixture{
		responder: r,
		accounts:  accounts,
		chats:     chats,
		messages:  messages,
		manager:   manager,
		account:   acc,
	}
}

func (f *fixture) inbound(body string) *chat.Message {
	return &chat.Message{
		ID:        uuid.New(),
		AccountID: f.account.ID,
		ChatJID:   "5491122334455@s.whatsapp.net",
		MessageID: uuid.NewString(),
		Direction: chat.DirectionInbound,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func waitForSends(t *testing.T, m *fakeManager, want int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return m.sendCount() == want
	}, time.Second, 5*time.Millisecond)
}

func TestRespondsToInbound(t *testing.T) {
	f := newFixture(t)

	f.responder.HandleInbound(context.Background(), f.inbound("Cuanto sale el plan de internet?"))

	waitForSends(t, f.manager, 1)
	assert.NotEmpty(t, f.manager.sends[0])
}

func TestNeverRepliesToOutbound(t *testing.T) {
	f := newFixture(t)

	msg := f.inbound("eco de envio")
	msg.Direction = chat.DirectionOutbound
	f.responder.HandleInbound(context.Background(), msg)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
	assert.Equal(t, 0, f.responder.PendingCount(f.account.ID))
}

func TestSkipsWhenAutoReplyDisabled(t *testing.T) {
	f := newFixture(t)
	f.account.AutoReply = false
	f.accounts.put(f.account)

	f.responder.HandleInbound(context.Background(), f.inbound("hola"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
}

func TestSkipsAssignedChat(t *testing.T) {
	f := newFixture(t)
	f.chats.put(&chat.Chat{
		ID:         uuid.New(),
		AccountID:  f.account.ID,
		ChatJID:    "5491122334455@s.whatsapp.net",
		AssignedTo: "carlos",
	})

	f.responder.HandleInbound(context.Background(), f.inbound("hola"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
}

func TestSkipsGroupChat(t *testing.T) {
	f := newFixture(t)
	f.chats.put(&chat.Chat{
		ID:        uuid.New(),
		AccountID: f.account.ID,
		ChatJID:   "5491122334455@s.whatsapp.net",
		IsGroup:   true,
	})

	f.responder.HandleInbound(context.Background(), f.inbound("hola"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
}

func TestSkipsWhenAlreadyReplied(t *testing.T) {
	f := newFixture(t)
	f.messages.setOutboundAfter(true)

	f.responder.HandleInbound(context.Background(), f.inbound("hola"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
}

func TestSkipsReplySentInSameSecond(t *testing.T) {
	f := newFixture(t)

	// O transporte carimba mensagens com granularidade de segundo: uma
	// resposta no mesmo segundo do gatilho já conta como respondida.
	msg := f.inbound("hola, sigue disponible?")
	msg.Timestamp = time.Now().Truncate(time.Second)
	f.messages.addOutbound(msg.Timestamp)

	f.responder.HandleInbound(context.Background(), msg)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
	assert.Equal(t, 0, f.responder.PendingCount(f.account.ID))
}

func TestRevalidatesAfterDelay(t *testing.T) {
	f := newFixture(t)

	f.responder.HandleInbound(context.Background(), f.inbound("Cuanto sale el plan?"))
	// Durante a espera um humano responde no chat.
	f.messages.setOutboundAfter(true)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
}

func TestCancelAccountStopsPending(t *testing.T) {
	f := newFixture(t)

	f.responder.HandleInbound(context.Background(), f.inbound("hola"))
	assert.Equal(t, 1, f.responder.PendingCount(f.account.ID))

	f.responder.CancelAccount(f.account.ID)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, f.manager.sendCount())
	assert.Equal(t, 0, f.responder.PendingCount(f.account.ID))
}

func TestDuplicateTriggerSchedulesOnce(t *testing.T) {
	f := newFixture(t)

	msg := f.inbound("Cuanto sale el plan de internet?")
	f.responder.HandleInbound(context.Background(), msg)
	f.responder.HandleInbound(context.Background(), msg)

	waitForSends(t, f.manager, 1)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, f.manager.sendCount())
}
