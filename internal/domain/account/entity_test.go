package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanInitialize(t *testing.T) {
	tests := []struct {
		state    LifecycleState
		isActive bool
		want     bool
	}{
		{StateDisconnected, true, true},
		{StateNeedsReconnect, true, true},
		{StateInitializing, true, false},
		{StateAwaitingQR, true, false},
		{StateAuthenticated, true, false},
		{StateReady, true, false},
		{StateDisconnected, false, false},
	}

	for _, tt := range tests {
		acc := &Account{State: tt.state, IsActive: tt.isActive}
		assert.Equal(t, tt.want, acc.CanInitialize(), "state=%s active=%v", tt.state, tt.isActive)
	}
}

func TestReplyDelay(t *testing.T) {
	acc := &Account{ReplyDelaySecs: 5}
	assert.Equal(t, 5*time.Second, acc.ReplyDelay())

	acc.ReplyDelaySecs = 0
	assert.Equal(t, time.Duration(0), acc.ReplyDelay())
}

func TestIsReady(t *testing.T) {
	acc := &Account{State: StateReady}
	assert.True(t, acc.IsReady())

	acc.State = StateAuthenticated
	assert.False(t, acc.IsReady())
}
