package intake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

type msgKey struct {
	accountID uuid.UUID
	chatJID   string
	messageID string
}

// fakeMessageRepo reproduz a constraint única de deduplicação do banco
type fakeMessageRepo struct {
	mu      sync.Mutex
	rows    map[msgKey]*chat.Message
	inserts int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{rows: make(map[msgKey]*chat.Message)}
}

func (r *fakeMessageRepo) Insert(ctx context.Context, m *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := msgKey{m.AccountID, m.ChatJID, m.MessageID}
	if _, ok := r.rows[key]; ok {
		return chat.ErrDuplicateMessage
	}
	r.rows[key] = m
	r.inserts++
	return nil
}

func (r *fakeMessageRepo) GetByMessageID(ctx context.Context, accountID uuid.UUID, chatJID, messageID string) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.rows[msgKey{accountID, chatJID, messageID}]; ok {
		return m, nil
	}
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
	r.mu.Lock()
	defer r.mu.Unlock()
	last := ""
	var lastTime time.Time
	for key, m := range r.rows {
		if key.accountID == accountID && key.chatJID == chatJID && !m.Timestamp.Before(lastTime) {
			last = m.MessageID
			lastTime = m.Timestamp
		}
	}
	return last, nil
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeChatRepo struct {
	mu      sync.Mutex
	upserts int
	unreads map[string]int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{unreads: make(map[string]int)}
}

func (r *fakeChatRepo) Upsert(ctx context.Context, c *chat.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	return nil
}

func (r *fakeChatRepo) GetByJID(ctx context.Context, accountID uuid.UUID, chatJID string) (*chat.Chat, error) {
	return nil, chat.ErrChatNotFound
}

func (r *fakeChatRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error) {
	return nil, nil
}

func (r *fakeChatRepo) Assign(ctx context.Context, accountID uuid.UUID, chatJID, assignee string) error {
	return nil
}

func (r *fakeChatRepo) IncrementUnread(ctx context.Context, accountID uuid.UUID, chatJID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unreads[chatJID]++
	return nil
}

func (r *fakeChatRepo) MarkRead(ctx context.Context, accountID uuid.UUID, chatJID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unreads[chatJID] = 0
	return nil
}

type recordingDownstream struct {
	mu       sync.Mutex
	received []*chat.Message
}

func (d *recordingDownstream) ProcessMessage(ctx context.Context, msg *chat.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, msg)
}

func (d *recordingDownstream) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.received)
}

func newTestIntake() (*Intake, *fakeMessageRepo, *fakeChatRepo, *recordingDownstream) {
	messages := newFakeMessageRepo()
	chats := newFakeChatRepo()
	downstream := &recordingDownstream{}
	i := NewIntake(messages, chats, time.Hour, logger.SetupForTesting())
	i.SetDownstream(downstream)
	return i, messages, chats, downstream
}

func event(accountID uuid.UUID, messageID string, direction chat.Direction) whatsapp.MessageEvent {
	return whatsapp.MessageEvent{
		AccountID:   accountID,
		ChatJID:     "5491122334455@s.whatsapp.net",
		MessageID:   messageID,
		Body:        "necesito internet",
		Direction:   direction,
		SenderPhone: "5491122334455",
		PushName:    "Maria",
		Timestamp:   time.Now(),
	}
}

func TestIntakeForwardsNewInbound(t *testing.T) {
	i, messages, chats, downstream := newTestIntake()
	accountID := uuid.New()

	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-1", chat.DirectionInbound))

	assert.Equal(t, 1, messages.count())
	assert.Equal(t, 1, downstream.count())
	assert.Equal(t, 1, chats.unreads["5491122334455@s.whatsapp.net"])
}

func TestIntakeRedeliveryIsIdempotent(t *testing.T) {
	i, messages, _, downstream := newTestIntake()
	accountID := uuid.New()

	// O transporte pode reentregar o mesmo evento N vezes; o resultado tem
	// que ser uma única linha e um único encaminhamento.
	for n := 0; n < 5; n++ {
		i.HandleMessageEvent(context.Background(), event(accountID, "MSG-1", chat.DirectionInbound))
	}

	assert.Equal(t, 1, messages.count())
	assert.Equal(t, 1, messages.inserts)
	assert.Equal(t, 1, downstream.count())
}

func TestIntakeDedupSurvivesMarkerLoss(t *testing.T) {
	i, messages, _, downstream := newTestIntake()
	accountID := uuid.New()

	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-1", chat.DirectionInbound))

	// Marcador perdido (restart, TTL): o banco continua segurando o dedup.
	i.markers.Flush()
	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-1", chat.DirectionInbound))

	assert.Equal(t, 1, messages.count())
	assert.Equal(t, 1, downstream.count())
}

func TestIntakeMarkerAdvancesOnNewMessage(t *testing.T) {
	i, messages, _, downstream := newTestIntake()
	accountID := uuid.New()

	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-1", chat.DirectionInbound))
	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-2", chat.DirectionInbound))
	// Reentrega tardia de MSG-1 após o marcador avançar: o banco rejeita.
	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-1", chat.DirectionInbound))

	assert.Equal(t, 2, messages.count())
	assert.Equal(t, 2, downstream.count())
}

func TestIntakeOutboundPersistedNotForwarded(t *testing.T) {
	i, messages, chats, downstream := newTestIntake()
	accountID := uuid.New()

	i.HandleMessageEvent(context.Background(), event(accountID, "MSG-OUT", chat.DirectionOutbound))

	assert.Equal(t, 1, messages.count())
	assert.Equal(t, 0, downstream.count())
	// Eco de envio não conta como não lida.
	assert.Equal(t, 0, chats.unreads["5491122334455@s.whatsapp.net"])
}

func TestIntakeStaleHistoryNotForwarded(t *testing.T) {
	i, messages, _, downstream := newTestIntake()
	accountID := uuid.New()

	evt := event(accountID, "MSG-OLD", chat.DirectionInbound)
	evt.Timestamp = i.startedAt.Add(-time.Hour)

	i.HandleMessageEvent(context.Background(), evt)

	// Histórico reentregue no restart é persistido mas nunca reprocessado.
	assert.Equal(t, 1, messages.count())
	assert.Equal(t, 0, downstream.count())
}

func TestWarmMarkersPrimesDedup(t *testing.T) {
	i, messages, _, downstream := newTestIntake()
	accountID := uuid.New()
	jid := "5491122334455@s.whatsapp.net"

	evt := event(accountID, "MSG-1", chat.DirectionInbound)
	require.NoError(t, messages.Insert(context.Background(), &chat.Message{
		ID: uuid.New(), AccountID: accountID, ChatJID: jid,
		MessageID: evt.MessageID, Direction: chat.DirectionInbound,
		Timestamp: evt.Timestamp,
	}))

	i.WarmMarkers(context.Background(), accountID, []string{jid})
	i.HandleMessageEvent(context.Background(), evt)

	// O marcador aquecido descarta a reentrega sem tocar o banco.
	assert.Equal(t, 1, messages.inserts)
	assert.Equal(t, 0, downstream.count())
}
