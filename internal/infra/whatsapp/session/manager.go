package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// SessionState representa o estado em memória de uma sessão WhatsApp de
// uma conta. O estado durável (LifecycleState, WaJID) vive na tabela de
// contas; aqui ficam apenas o cliente whatsmeow e os dados voláteis de
// reconexão e QR code.
type SessionState struct {
	AccountID      uuid.UUID                      `json:"accountId"`
	JID            *types.JID                     `json:"jid,omitempty"`
	State          account.LifecycleState         `json:"state"`
	QRCode         string                         `json:"qrCode,omitempty"`
	QRGeneratedAt  *time.Time                     `json:"qrGeneratedAt,omitempty"`
	RetryCount     int                            `json:"retryCount"`
	WindowStart    *time.Time                     `json:"windowStart,omitempty"`
	LastError      string                         `json:"lastError,omitempty"`
	ConnectedAt    *time.Time                     `json:"connectedAt,omitempty"`
	Client         *whatsmeow.Client              `json:"-"`
	EventHandlerID uint32                         `json:"-"`
	QRChan         <-chan whatsmeow.QRChannelItem `json:"-"`
}

// SessionManager guarda as sessões ativas e sincroniza as transições de
// estado com o repositório de contas.
type SessionManager struct {
	sessions  map[uuid.UUID]*SessionState
	container *sqlstore.Container
	mutex     sync.RWMutex
	logger    logger.Logger

	repo account.Repository
}

// NewSessionManager cria uma nova instância do SessionManager.
func NewSessionManager(container *sqlstore.Container, repo account.Repository, log logger.Logger) *SessionManager {
	return &SessionManager{
		sessions:  make(map[uuid.UUID]*SessionState),
		container: container,
		repo:      repo,
		logger:    log.WithComponent("session-manager"),
	}
}

// GetRepository retorna o repository de contas.
func (sm *SessionManager) GetRepository() account.Repository {
	return sm.repo
}

// CreateSession cria uma nova sessão com device store novo.
func (sm *SessionManager) CreateSession(accountID uuid.UUID) (*SessionState, error) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.sessions[accountID]; exists {
		return nil, whatsapp.ErrSessionAlreadyExists
	}

	deviceStore := sm.container.NewDevice()
	client := whatsmeow.NewClient(deviceStore, nil)

	state := &SessionState{
		AccountID: accountID,
		State:     account.StateDisconnected,
		Client:    client,
	}
	sm.sessions[accountID] = state

	sm.logger.WithField("accountId", accountID).Info().Msg("Session created successfully")
	return state, nil
}

// GetSession retorna uma sessão pelo ID da conta.
func (sm *SessionManager) GetSession(accountID uuid.UUID) (*SessionState, error) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return nil, whatsapp.ErrSessionNotFound
	}
	return state, nil
}

// HasSession indica se já existe sessão em memória para a conta.
func (sm *SessionManager) HasSession(accountID uuid.UUID) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	_, exists := sm.sessions[accountID]
	return exists
}

// UpdateState atualiza o estado de ciclo de vida em memória.
func (sm *SessionManager) UpdateState(accountID uuid.UUID, state account.LifecycleState) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sess, exists := sm.sessions[accountID]
	if !exists {
		return whatsapp.ErrSessionNotFound
	}

	sess.State = state
	if state == account.StateReady {
		now := time.Now()
		sess.ConnectedAt = &now
	}

	sm.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"state":     state,
	}).Debug().Msg("Session state updated")

	return nil
}

// RecordError registra a última falha observada na sessão.
func (sm *SessionManager) RecordError(accountID uuid.UUID, err error) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sess, exists := sm.sessions[accountID]; exists && err != nil {
		sess.LastError = err.Error()
	}
}

// RecordRetry incrementa o contador de tentativas de reconexão e retorna
// o total dentro da janela atual. A janela reinicia quando o intervalo
// configurado expira.
func (sm *SessionManager) RecordRetry(accountID uuid.UUID, window time.Duration) (int, error) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sess, exists := sm.sessions[accountID]
	if !exists {
		return 0, whatsapp.ErrSessionNotFound
	}

	now := time.Now()
	if sess.WindowStart == nil || now.Sub(*sess.WindowStart) > window {
		sess.WindowStart = &now
		sess.RetryCount = 0
	}
	sess.RetryCount++

	return sess.RetryCount, nil
}

// ResetRetries zera o contador de reconexões após uma conexão bem sucedida.
func (sm *SessionManager) ResetRetries(accountID uuid.UUID) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sess, exists := sm.sessions[accountID]; exists {
		sess.RetryCount = 0
		sess.WindowStart = nil
		sess.LastError = ""
	}
}

// RemoveSession remove uma sessão e libera os recursos do cliente.
func (sm *SessionManager) RemoveSession(accountID uuid.UUID) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return whatsapp.ErrSessionNotFound
	}

	if state.Client != nil && state.Client.IsConnected() {
		state.Client.Disconnect()
	}
	if state.Client != nil && state.EventHandlerID != 0 {
		state.Client.RemoveEventHandler(state.EventHandlerID)
	}

	delete(sm.sessions, accountID)

	sm.logger.WithField("accountId", accountID).Info().Msg("Session removed")
	return nil
}

// IsConnected verifica se a sessão da conta está conectada ao WhatsApp.
func (sm *SessionManager) IsConnected(accountID uuid.UUID) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return false
	}
	return state.Client != nil && state.Client.IsConnected()
}

// GetAllSessions retorna uma cópia rasa de todas as sessões em memória.
func (sm *SessionManager) GetAllSessions() map[uuid.UUID]*SessionState {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	sessions := make(map[uuid.UUID]*SessionState, len(sm.sessions))
	for id, state := range sm.sessions {
		stateCopy := *state
		sessions[id] = &stateCopy
	}
	return sessions
}

// RestoreSession restaura uma sessão a partir do WaJID persistido,
// reutilizando o device store do whatsmeow quando ele ainda existe.
func (sm *SessionManager) RestoreSession(ctx context.Context, accountID uuid.UUID, waJID string) (*SessionState, error) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.sessions[accountID]; exists {
		return nil, whatsapp.ErrSessionAlreadyExists
	}

	parsedJID, err := types.ParseJID(waJID)
	if err != nil {
		return nil, fmt.Errorf("invalid WaJID format: %w", err)
	}

	sm.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"waJid":     waJID,
	}).Info().Msg("Restoring session from WaJID")

	deviceStore, err := sm.container.GetDevice(ctx, parsedJID)
	if err != nil || deviceStore == nil {
		sm.logger.WithField("waJid", waJID).Warn().Msg("Failed to get existing device, creating new one")
		// Sem device persistido a conta precisará de nova autenticação via QR.
		deviceStore = sm.container.NewDevice()
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	state := &SessionState{
		AccountID: accountID,
		JID:       &parsedJID,
		State:     account.StateDisconnected,
		Client:    client,
	}
	sm.sessions[accountID] = state

	if deviceStore.ID != nil {
		sm.logger.WithFields(map[string]interface{}{
			"accountId": accountID,
			"deviceId":  deviceStore.ID.String(),
		}).Info().Msg("Session restored successfully with existing device")
	} else {
		sm.logger.WithField("accountId", accountID).Info().Msg("Session restored with new device - will need authentication")
	}

	return state, nil
}

// SetEventHandler guarda o ID do event handler registrado no cliente.
func (sm *SessionManager) SetEventHandler(accountID uuid.UUID, handlerID uint32) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return whatsapp.ErrSessionNotFound
	}
	state.EventHandlerID = handlerID
	return nil
}

// SetQRChannel guarda o canal de QR codes de uma sessão em pareamento.
func (sm *SessionManager) SetQRChannel(accountID uuid.UUID, qrChan <-chan whatsmeow.QRChannelItem) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return whatsapp.ErrSessionNotFound
	}
	state.QRChan = qrChan
	return nil
}

// UpdateQRCode atualiza o QR code corrente da sessão. Código vazio limpa
// o QR (após pareamento ou expiração).
func (sm *SessionManager) UpdateQRCode(accountID uuid.UUID, qrCode string) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return whatsapp.ErrSessionNotFound
	}

	state.QRCode = qrCode
	if qrCode != "" {
		now := time.Now()
		state.QRGeneratedAt = &now
	} else {
		state.QRGeneratedAt = nil
	}

	sm.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"hasQr":     qrCode != "",
	}).Debug().Msg("Session QR code updated")

	return nil
}

// UpdateJID atualiza o JID da sessão em memória.
func (sm *SessionManager) UpdateJID(accountID uuid.UUID, jid *types.JID) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	state, exists := sm.sessions[accountID]
	if !exists {
		return whatsapp.ErrSessionNotFound
	}
	state.JID = jid
	return nil
}

// UpdateStateDB persiste a transição de estado no repositório de contas.
// As transições em memória e no banco andam juntas para que o status
// reportado pela API sobreviva a reinícios.
func (sm *SessionManager) UpdateStateDB(ctx context.Context, accountID uuid.UUID, state account.LifecycleState) error {
	sm.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"state":     state,
	}).Debug().Msg("Updating account state in database")

	return sm.repo.UpdateState(ctx, accountID, state)
}

// UpdateOnAuthenticated persiste JID e estado quando o pareamento conclui.
func (sm *SessionManager) UpdateOnAuthenticated(ctx context.Context, accountID uuid.UUID, jid string) error {
	if err := sm.repo.UpdateJID(ctx, accountID, jid); err != nil {
		return err
	}
	if err := sm.repo.UpdateState(ctx, accountID, account.StateAuthenticated); err != nil {
		return err
	}

	sm.mutex.Lock()
	if state, exists := sm.sessions[accountID]; exists {
		state.State = account.StateAuthenticated
		state.QRCode = ""
		state.QRGeneratedAt = nil
		if jid != "" {
			if parsed, err := types.ParseJID(jid); err == nil {
				state.JID = &parsed
			}
		}
	}
	sm.mutex.Unlock()

	return nil
}

// UpdateOnReady persiste o estado pronto e zera o controle de retries.
func (sm *SessionManager) UpdateOnReady(ctx context.Context, accountID uuid.UUID) error {
	if err := sm.repo.UpdateState(ctx, accountID, account.StateReady); err != nil {
		return err
	}

	sm.mutex.Lock()
	if state, exists := sm.sessions[accountID]; exists {
		state.State = account.StateReady
		state.RetryCount = 0
		state.WindowStart = nil
		state.LastError = ""
		now := time.Now()
		state.ConnectedAt = &now
	}
	sm.mutex.Unlock()

	return nil
}

// UpdateOnDisconnect persiste a queda da sessão.
func (sm *SessionManager) UpdateOnDisconnect(ctx context.Context, accountID uuid.UUID) error {
	if err := sm.repo.UpdateState(ctx, accountID, account.StateDisconnected); err != nil {
		return err
	}

	sm.mutex.Lock()
	if state, exists := sm.sessions[accountID]; exists {
		state.State = account.StateDisconnected
		state.ConnectedAt = nil
	}
	sm.mutex.Unlock()

	return nil
}

// UpdateOnLogout limpa as credenciais da conta após logout remoto.
func (sm *SessionManager) UpdateOnLogout(ctx context.Context, accountID uuid.UUID) error {
	if err := sm.repo.UpdateJID(ctx, accountID, ""); err != nil {
		return err
	}
	if err := sm.repo.UpdateState(ctx, accountID, account.StateDisconnected); err != nil {
		return err
	}

	sm.mutex.Lock()
	if state, exists := sm.sessions[accountID]; exists {
		state.State = account.StateDisconnected
		state.JID = nil
		state.ConnectedAt = nil
	}
	sm.mutex.Unlock()

	return nil
}

// Close encerra o session manager e desconecta todas as sessões ativas.
func (sm *SessionManager) Close() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.logger.Info().Msg("Closing session manager")

	for accountID, state := range sm.sessions {
		if state.Client != nil && state.Client.IsConnected() {
			state.Client.Disconnect()
		}
		if state.Client != nil && state.EventHandlerID != 0 {
			state.Client.RemoveEventHandler(state.EventHandlerID)
		}
		delete(sm.sessions, accountID)
	}

	sm.logger.Info().Msg("Session manager closed")
	return nil
}
