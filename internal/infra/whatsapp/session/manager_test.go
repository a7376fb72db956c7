package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

func newTestManager(t *testing.T, accountIDs ...uuid.UUID) *SessionManager {
	t.Helper()

	sm := NewSessionManager(nil, nil, logger.SetupForTesting())
	for _, id := range accountIDs {
		sm.sessions[id] = &SessionState{
			AccountID: id,
			State:     account.StateDisconnected,
		}
	}
	return sm
}

func TestRecordRetryCountsWithinWindow(t *testing.T) {
	accountID := uuid.New()
	sm := newTestManager(t, accountID)

	for want := 1; want <= 3; want++ {
		got, err := sm.RecordRetry(accountID, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRecordRetryResetsAfterWindowExpires(t *testing.T) {
	accountID := uuid.New()
	sm := newTestManager(t, accountID)

	for i := 0; i < 3; i++ {
		_, err := sm.RecordRetry(accountID, time.Minute)
		require.NoError(t, err)
	}

	// Janela vencida: o contador recomeça do zero.
	expired := time.Now().Add(-2 * time.Minute)
	sm.sessions[accountID].WindowStart = &expired

	got, err := sm.RecordRetry(accountID, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestRecordRetryUnknownSession(t *testing.T) {
	sm := newTestManager(t)

	_, err := sm.RecordRetry(uuid.New(), time.Minute)
	assert.ErrorIs(t, err, whatsapp.ErrSessionNotFound)
}

func TestResetRetriesClearsCounters(t *testing.T) {
	accountID := uuid.New()
	sm := newTestManager(t, accountID)

	for i := 0; i < 4; i++ {
		_, err := sm.RecordRetry(accountID, time.Minute)
		require.NoError(t, err)
	}
	sm.RecordError(accountID, assert.AnError)

	sm.ResetRetries(accountID)

	sess := sm.sessions[accountID]
	assert.Equal(t, 0, sess.RetryCount)
	assert.Nil(t, sess.WindowStart)
	assert.Empty(t, sess.LastError)

	got, err := sm.RecordRetry(accountID, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestUpdateStateMarksConnectedAtWhenReady(t *testing.T) {
	accountID := uuid.New()
	sm := newTestManager(t, accountID)

	require.NoError(t, sm.UpdateState(accountID, account.StateInitializing))
	assert.Nil(t, sm.sessions[accountID].ConnectedAt)

	require.NoError(t, sm.UpdateState(accountID, account.StateReady))
	assert.NotNil(t, sm.sessions[accountID].ConnectedAt)
}

func TestRemoveSessionDropsAccount(t *testing.T) {
	accountID := uuid.New()
	sm := newTestManager(t, accountID)

	require.True(t, sm.HasSession(accountID))
	require.NoError(t, sm.RemoveSession(accountID))
	assert.False(t, sm.HasSession(accountID))

	assert.ErrorIs(t, sm.RemoveSession(accountID), whatsapp.ErrSessionNotFound)
}
