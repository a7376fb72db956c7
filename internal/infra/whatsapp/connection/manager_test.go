package connection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow"

	"zcrm/internal/domain/account"
	"zcrm/internal/infra/whatsapp/session"
	"zcrm/pkg/logger"
)

// fakeSessions simula o session manager para uma conta cujo transporte
// está permanentemente fora do ar (Client nil faz todo Connect falhar).
type fakeSessions struct {
	mu          sync.Mutex
	state       *session.SessionState
	retries     int
	windowStart time.Time
	lifecycle   []account.LifecycleState
	persisted   []account.LifecycleState
	resets      int
}

func newFakeSessions(accountID uuid.UUID) *fakeSessions {
	return &fakeSessions{
		state: &session.SessionState{
			AccountID: accountID,
			State:     account.StateDisconnected,
		},
	}
}

func (f *fakeSessions) GetSession(accountID uuid.UUID) (*session.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeSessions) GetRepository() account.Repository { return nil }

func (f *fakeSessions) SetQRChannel(accountID uuid.UUID, qrChan <-chan whatsmeow.QRChannelItem) error {
	return nil
}

func (f *fakeSessions) SetEventHandler(accountID uuid.UUID, handlerID uint32) error { return nil }

func (f *fakeSessions) UpdateState(accountID uuid.UUID, state account.LifecycleState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.State = state
	f.lifecycle = append(f.lifecycle, state)
	return nil
}

func (f *fakeSessions) UpdateStateDB(ctx context.Context, accountID uuid.UUID, state account.LifecycleState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = append(f.persisted, state)
	return nil
}

func (f *fakeSessions) UpdateOnDisconnect(ctx context.Context, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.State = account.StateDisconnected
	return nil
}

func (f *fakeSessions) RecordRetry(accountID uuid.UUID, window time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if f.windowStart.IsZero() || now.Sub(f.windowStart) > window {
		f.windowStart = now
		f.retries = 0
	}
	f.retries++
	return f.retries, nil
}

func (f *fakeSessions) RecordError(accountID uuid.UUID, err error) {}

func (f *fakeSessions) ResetRetries(accountID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries = 0
	f.windowStart = time.Time{}
	f.resets++
}

func (f *fakeSessions) currentState() account.LifecycleState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.State
}

func (f *fakeSessions) retryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retries
}

func (f *fakeSessions) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

func newTestConnectionManager(f *fakeSessions, policy BackoffPolicy) *ConnectionManager {
	return NewConnectionManager(f, nil, policy, logger.SetupForTesting())
}

func TestReconnectExhaustionEntersNeedsReconnect(t *testing.T) {
	accountID := uuid.New()
	sessions := newFakeSessions(accountID)
	cm := newTestConnectionManager(sessions, BackoffPolicy{
		MinDelay:    time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		MaxAttempts: 3,
		Window:      time.Minute,
	})
	defer cm.Close()

	cm.ScheduleReconnect(accountID)

	// Com o transporte sempre falhando, as tentativas se esgotam e a conta
	// cai para o estado que exige reconexão manual.
	assert.Eventually(t, func() bool {
		return sessions.currentState() == account.StateNeedsReconnect
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 4, sessions.retryCount(), "para na primeira tentativa acima do limite")
	assert.Contains(t, sessions.persisted, account.StateNeedsReconnect)

	// Nenhuma nova tentativa depois do esgotamento.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 4, sessions.retryCount())
	assert.Equal(t, account.StateNeedsReconnect, sessions.currentState())
}

func TestManualReconnectResetsRetryWindow(t *testing.T) {
	accountID := uuid.New()
	sessions := newFakeSessions(accountID)
	sessions.retries = 5
	cm := newTestConnectionManager(sessions, DefaultBackoffPolicy())
	defer cm.Close()

	// O Connect falha (transporte fora do ar), mas o contador já foi zerado.
	err := cm.Reconnect(context.Background(), accountID)
	assert.Error(t, err)
	assert.Equal(t, 1, sessions.resetCount())
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	accountID := uuid.New()
	sessions := newFakeSessions(accountID)
	cm := newTestConnectionManager(sessions, BackoffPolicy{
		MinDelay:    time.Second,
		MaxDelay:    2 * time.Second,
		MaxAttempts: 8,
		Window:      time.Minute,
	})
	defer cm.Close()

	cm.ScheduleReconnect(accountID)
	assert.Eventually(t, func() bool {
		return sessions.retryCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Disconnect falha no cliente nil, mas antes disso cancela o backoff.
	_ = cm.Disconnect(context.Background(), accountID)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, sessions.retryCount())
}
