package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/infra/whatsapp/session"
	"zcrm/pkg/logger"
)

// EventProcessorInterface define o que o connection manager precisa do
// processador de eventos do whatsmeow.
type EventProcessorInterface interface {
	ProcessEvent(accountID uuid.UUID, evt interface{})
}

// SessionManagerInterface define o que o connection manager precisa do
// session manager. O *session.SessionManager real satisfaz a interface;
// os testes usam um fake para simular quedas de transporte.
type SessionManagerInterface interface {
	GetSession(accountID uuid.UUID) (*session.SessionState, error)
	GetRepository() account.Repository
	SetQRChannel(accountID uuid.UUID, qrChan <-chan whatsmeow.QRChannelItem) error
	SetEventHandler(accountID uuid.UUID, handlerID uint32) error
	UpdateState(accountID uuid.UUID, state account.LifecycleState) error
	UpdateStateDB(ctx context.Context, accountID uuid.UUID, state account.LifecycleState) error
	UpdateOnDisconnect(ctx context.Context, accountID uuid.UUID) error
	RecordRetry(accountID uuid.UUID, window time.Duration) (int, error)
	RecordError(accountID uuid.UUID, err error)
	ResetRetries(accountID uuid.UUID)
}

// ConnectionManager conduz o ciclo de vida das conexões WhatsApp:
// conexão inicial (com ou sem QR), quedas e a reconexão automática com
// backoff exponencial limitado. Quando o limite de tentativas da janela
// estoura, a conta vai para needs_reconnect e só volta por ação manual.
type ConnectionManager struct {
	sessionManager SessionManagerInterface
	qrManager      *QRCodeManager
	eventProcessor EventProcessorInterface
	policy         BackoffPolicy

	reconnects map[uuid.UUID]context.CancelFunc
	mutex      sync.Mutex
	logger     logger.Logger
}

// NewConnectionManager cria uma nova instância do ConnectionManager.
func NewConnectionManager(
	sessionManager SessionManagerInterface,
	qrManager *QRCodeManager,
	policy BackoffPolicy,
	log logger.Logger,
) *ConnectionManager {
	if policy.MinDelay <= 0 {
		policy = DefaultBackoffPolicy()
	}
	return &ConnectionManager{
		sessionManager: sessionManager,
		qrManager:      qrManager,
		policy:         policy,
		reconnects:     make(map[uuid.UUID]context.CancelFunc),
		logger:         log.WithComponent("connection-manager"),
	}
}

// SetEventProcessor injeta o processador de eventos. Separado do
// construtor porque processor e manager se referenciam mutuamente.
func (cm *ConnectionManager) SetEventProcessor(processor EventProcessorInterface) {
	cm.eventProcessor = processor
}

// Policy retorna a política de backoff em uso.
func (cm *ConnectionManager) Policy() BackoffPolicy {
	return cm.policy
}

// Connect conecta a sessão de uma conta ao WhatsApp. Sessões sem device
// persistido entram no fluxo de pareamento por QR; sessões já pareadas
// conectam direto.
func (cm *ConnectionManager) Connect(ctx context.Context, accountID uuid.UUID) error {
	cm.logger.WithField("accountId", accountID).Info().Msg("Starting connection")

	state, err := cm.sessionManager.GetSession(accountID)
	if err != nil {
		return err
	}
	if state.Client == nil {
		return fmt.Errorf("client is nil for account %s", accountID)
	}

	if state.Client.IsConnected() {
		cm.logger.WithField("accountId", accountID).Warn().Msg("Session already connected")
		return nil
	}

	cm.transition(ctx, accountID, account.StateInitializing)

	if state.Client.Store.ID == nil {
		return cm.connectNewSession(ctx, accountID, state)
	}
	return cm.connectExistingSession(ctx, accountID, state)
}

// connectNewSession inicia o pareamento por QR code de uma sessão nova.
func (cm *ConnectionManager) connectNewSession(ctx context.Context, accountID uuid.UUID, state *session.SessionState) error {
	cm.logger.WithField("accountId", accountID).Info().Msg("Connecting new session - QR authentication required")

	qrChan, err := cm.qrManager.GenerateQRCode(ctx, accountID, state.Client)
	if err != nil {
		cm.recordFailure(ctx, accountID, err)
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	if err := cm.sessionManager.SetQRChannel(accountID, qrChan); err != nil {
		cm.recordFailure(ctx, accountID, err)
		return err
	}

	cm.registerEventHandler(accountID, state)

	if err := state.Client.Connect(); err != nil {
		cm.recordFailure(ctx, accountID, err)
		return fmt.Errorf("failed to connect client for authentication: %w", err)
	}

	cm.transition(ctx, accountID, account.StateAwaitingQR)

	cm.logger.WithField("accountId", accountID).Info().Msg("New session connection initiated, waiting for QR scan")
	return nil
}

// connectExistingSession conecta uma sessão já pareada, sem QR.
func (cm *ConnectionManager) connectExistingSession(ctx context.Context, accountID uuid.UUID, state *session.SessionState) error {
	cm.logger.WithField("accountId", accountID).Info().Msg("Connecting existing authenticated session")

	if state.Client.Store.ID == nil {
		return fmt.Errorf("existing session missing device ID")
	}

	cm.registerEventHandler(accountID, state)

	if err := state.Client.Connect(); err != nil {
		cm.recordFailure(ctx, accountID, err)
		return fmt.Errorf("failed to connect existing session: %w", err)
	}

	// O evento Connected do whatsmeow promove a sessão para ready; aqui
	// apenas garantimos que o JID esteja persistido.
	if err := cm.sessionManager.GetRepository().UpdateJID(ctx, accountID, state.Client.Store.ID.String()); err != nil {
		cm.logger.WithError(err).Warn().Msg("Failed to update WaJID in database")
	}
	cm.transition(ctx, accountID, account.StateAuthenticated)

	cm.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"deviceId":  state.Client.Store.ID.String(),
	}).Info().Msg("Existing session connected successfully")
	return nil
}

// registerEventHandler garante um único event handler registrado por sessão.
func (cm *ConnectionManager) registerEventHandler(accountID uuid.UUID, state *session.SessionState) {
	if cm.eventProcessor == nil || state.EventHandlerID != 0 {
		return
	}

	handlerID := state.Client.AddEventHandler(func(evt interface{}) {
		cm.eventProcessor.ProcessEvent(accountID, evt)
	})
	if err := cm.sessionManager.SetEventHandler(accountID, handlerID); err != nil {
		cm.logger.WithError(err).Warn().Msg("Failed to store event handler ID")
	}
}

// Disconnect desconecta a sessão de uma conta de forma voluntária,
// cancelando qualquer reconexão pendente.
func (cm *ConnectionManager) Disconnect(ctx context.Context, accountID uuid.UUID) error {
	cm.logger.WithField("accountId", accountID).Info().Msg("Disconnecting session")

	cm.cancelReconnect(accountID)

	state, err := cm.sessionManager.GetSession(accountID)
	if err != nil {
		return err
	}
	if state.Client == nil {
		return fmt.Errorf("client is nil for account %s", accountID)
	}

	if state.Client.IsConnected() {
		state.Client.Disconnect()
	}

	cm.qrManager.ClearQRCode(accountID)
	if err := cm.sessionManager.UpdateOnDisconnect(ctx, accountID); err != nil {
		cm.logger.WithError(err).Warn().Msg("Failed to persist disconnect")
	}

	cm.logger.WithField("accountId", accountID).Info().Msg("Session disconnected successfully")
	return nil
}

// Reconnect é o caminho manual de recuperação: zera o contador de
// tentativas (inclusive para contas em needs_reconnect) e conecta de novo.
func (cm *ConnectionManager) Reconnect(ctx context.Context, accountID uuid.UUID) error {
	cm.logger.WithField("accountId", accountID).Info().Msg("Manual reconnect requested")

	cm.cancelReconnect(accountID)
	cm.sessionManager.ResetRetries(accountID)

	state, err := cm.sessionManager.GetSession(accountID)
	if err != nil {
		return err
	}
	if state.Client != nil && state.Client.IsConnected() {
		state.Client.Disconnect()
	}

	return cm.Connect(ctx, accountID)
}

// OnConnectionLost deve ser chamado quando uma sessão autenticada cai.
// Agenda a reconexão automática respeitando o backoff.
func (cm *ConnectionManager) OnConnectionLost(accountID uuid.UUID) {
	cm.logger.WithField("accountId", accountID).Warn().Msg("Connection lost")

	ctx := context.Background()
	if err := cm.sessionManager.UpdateOnDisconnect(ctx, accountID); err != nil {
		cm.logger.WithError(err).Warn().Msg("Failed to persist disconnect")
	}

	cm.ScheduleReconnect(accountID)
}

// ScheduleReconnect agenda uma tentativa de reconexão com o atraso da
// política. Uma conta nunca tem mais de uma reconexão pendente; estourar
// o limite da janela derruba a conta para needs_reconnect.
func (cm *ConnectionManager) ScheduleReconnect(accountID uuid.UUID) {
	cm.mutex.Lock()
	if _, pending := cm.reconnects[accountID]; pending {
		cm.mutex.Unlock()
		cm.logger.WithField("accountId", accountID).Debug().Msg("Reconnect already pending")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	cm.reconnects[accountID] = cancel
	cm.mutex.Unlock()

	go cm.runReconnect(ctx, accountID)
}

// runReconnect executa uma rodada de reconexão em background.
func (cm *ConnectionManager) runReconnect(ctx context.Context, accountID uuid.UUID) {
	defer cm.cancelReconnect(accountID)

	attempt, err := cm.sessionManager.RecordRetry(accountID, cm.policy.Window)
	if err != nil {
		cm.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to record retry")
		return
	}

	if cm.policy.Exhausted(attempt) {
		cm.logger.WithFields(map[string]interface{}{
			"accountId": accountID,
			"attempts":  attempt,
		}).Error().Msg("Reconnect attempts exhausted, manual intervention required")

		if err := cm.sessionManager.UpdateStateDB(ctx, accountID, account.StateNeedsReconnect); err != nil {
			cm.logger.WithError(err).Warn().Msg("Failed to persist needs_reconnect state")
		}
		_ = cm.sessionManager.UpdateState(accountID, account.StateNeedsReconnect)
		return
	}

	delay := cm.policy.DelayFor(attempt)
	cm.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"attempt":   attempt,
		"delay":     delay.String(),
	}).Info().Msg("Scheduling reconnect attempt")

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := cm.Connect(ctx, accountID); err != nil {
		cm.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": accountID,
			"attempt":   attempt,
		}).Warn().Msg("Reconnect attempt failed")
		cm.sessionManager.RecordError(accountID, err)

		// Reagendar fora desta goroutine para liberar o slot pendente.
		go func() {
			time.Sleep(100 * time.Millisecond)
			cm.ScheduleReconnect(accountID)
		}()
	}
}

// cancelReconnect cancela a reconexão pendente da conta, se houver.
func (cm *ConnectionManager) cancelReconnect(accountID uuid.UUID) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cancel, exists := cm.reconnects[accountID]; exists {
		cancel()
		delete(cm.reconnects, accountID)
	}
}

// transition aplica uma transição de estado em memória e no banco.
func (cm *ConnectionManager) transition(ctx context.Context, accountID uuid.UUID, state account.LifecycleState) {
	if err := cm.sessionManager.UpdateState(accountID, state); err != nil && err != whatsapp.ErrSessionNotFound {
		cm.logger.WithError(err).Warn().Msg("Failed to update in-memory state")
	}
	if err := cm.sessionManager.UpdateStateDB(ctx, accountID, state); err != nil {
		cm.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": accountID,
			"state":     state,
		}).Warn().Msg("Failed to persist state transition")
	}
}

// recordFailure registra a falha e persiste o estado desconectado.
func (cm *ConnectionManager) recordFailure(ctx context.Context, accountID uuid.UUID, err error) {
	cm.sessionManager.RecordError(accountID, err)
	cm.transition(ctx, accountID, account.StateDisconnected)
}

// Close cancela todas as reconexões pendentes.
func (cm *ConnectionManager) Close() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for accountID, cancel := range cm.reconnects {
		cancel()
		delete(cm.reconnects, accountID)
	}

	cm.logger.Info().Msg("Connection manager closed")
}
