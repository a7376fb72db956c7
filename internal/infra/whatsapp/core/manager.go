package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/infra/whatsapp/connection"
	"zcrm/internal/infra/whatsapp/events"
	"zcrm/internal/infra/whatsapp/session"
	"zcrm/pkg/logger"
)

// Manager implementa whatsapp.Manager coordenando session manager,
// connection manager, QR manager e o processador de eventos. É o único
// ponto do sistema que toca nos clientes whatsmeow.
type Manager struct {
	container *sqlstore.Container

	sessionManager    *session.SessionManager
	connectionManager *connection.ConnectionManager
	qrManager         *connection.QRCodeManager
	eventProcessor    *events.EventProcessor

	accounts account.Repository
	chats    chat.ChatRepository
	messages chat.MessageRepository

	logger logger.Logger
}

// Options agrupa as dependências e limites do manager.
type Options struct {
	DSN       string
	QRCodeTTL time.Duration
	Backoff   connection.BackoffPolicy

	Accounts  account.Repository
	Chats     chat.ChatRepository
	Messages  chat.MessageRepository
	QRBackups whatsapp.QRBackupRepository
}

// NewManager cria o manager completo, incluindo o container sqlstore do
// whatsmeow que persiste os devices no mesmo Postgres da aplicação.
func NewManager(ctx context.Context, opts Options, log logger.Logger) (*Manager, error) {
	container, err := sqlstore.New(ctx, "postgres", opts.DSN, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create whatsmeow store: %w", err)
	}

	sessionManager := session.NewSessionManager(container, opts.Accounts, log)
	qrManager := connection.NewQRCodeManager(opts.QRBackups, opts.QRCodeTTL, log)
	connectionManager := connection.NewConnectionManager(sessionManager, qrManager, opts.Backoff, log)
	eventProcessor := events.NewEventProcessor(sessionManager, connectionManager, log)
	connectionManager.SetEventProcessor(eventProcessor)

	go qrManager.StartCleanupRoutine(ctx)

	return &Manager{
		container:         container,
		sessionManager:    sessionManager,
		connectionManager: connectionManager,
		qrManager:         qrManager,
		eventProcessor:    eventProcessor,
		accounts:          opts.Accounts,
		chats:             opts.Chats,
		messages:          opts.Messages,
		logger:            log.WithComponent("whatsapp-manager"),
	}, nil
}

// SetEventSink injeta o consumidor de mensagens do pipeline. Deve ser
// chamado antes de Initialize para não perder eventos.
func (m *Manager) SetEventSink(sink whatsapp.EventSink) {
	m.eventProcessor.SetSink(sink)
}

// Initialize inicia ou retoma a conexão de uma conta. Idempotente: se a
// sessão já existe e está no meio do fluxo (inicializando, aguardando QR
// ou pronta), apenas retorna o status atual.
func (m *Manager) Initialize(ctx context.Context, accountID uuid.UUID) (*whatsapp.Status, error) {
	acc, err := m.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, account.ErrAccountInactive
	}

	if m.sessionManager.HasSession(accountID) {
		status, err := m.GetStatus(accountID)
		if err != nil {
			return nil, err
		}
		switch status.State {
		case account.StateInitializing, account.StateAwaitingQR, account.StateAuthenticated, account.StateReady:
			m.logger.WithFields(map[string]interface{}{
				"accountId": accountID,
				"state":     status.State,
			}).Debug().Msg("Initialize is a no-op, session already in progress")
			return status, nil
		}
	} else {
		if acc.WaJID != "" {
			if _, err := m.sessionManager.RestoreSession(ctx, accountID, acc.WaJID); err != nil {
				return nil, err
			}
		} else {
			if _, err := m.sessionManager.CreateSession(accountID); err != nil {
				return nil, err
			}
		}
	}

	if err := m.connectionManager.Connect(ctx, accountID); err != nil {
		return nil, err
	}

	return m.GetStatus(accountID)
}

// GetStatus retorna uma fotografia do estado da conta sem bloquear.
func (m *Manager) GetStatus(accountID uuid.UUID) (*whatsapp.Status, error) {
	state, err := m.sessionManager.GetSession(accountID)
	if err != nil {
		return nil, err
	}

	status := &whatsapp.Status{
		AccountID:   accountID,
		State:       state.State,
		RetryCount:  state.RetryCount,
		LastError:   state.LastError,
		ConnectedAt: state.ConnectedAt,
	}
	if qr, _ := m.qrManager.GetQRCode(accountID); qr != "" {
		status.QRCode = qr
	}
	return status, nil
}

// SendMessage envia texto para um chat. Exige sessão pronta.
func (m *Manager) SendMessage(ctx context.Context, accountID uuid.UUID, chatJID, body string) (*whatsapp.SendAck, error) {
	state, err := m.sessionManager.GetSession(accountID)
	if err != nil {
		return nil, err
	}
	if state.State != account.StateReady || state.Client == nil || !state.Client.IsConnected() {
		return nil, whatsapp.ErrNotConnected
	}

	recipientJID, err := types.ParseJID(chatJID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", whatsapp.ErrInvalidJID, chatJID)
	}

	msg := &waE2E.Message{
		Conversation: proto.String(body),
	}

	resp, err := state.Client.SendMessage(ctx, recipientJID, msg)
	if err != nil {
		m.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": accountID,
			"chatJid":   chatJID,
		}).Error().Msg("Failed to send message")
		return nil, fmt.Errorf("%w: %v", whatsapp.ErrSendFailed, err)
	}

	m.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"chatJid":   chatJID,
		"messageId": resp.ID,
	}).Info().Msg("Message sent")

	return &whatsapp.SendAck{
		MessageID: resp.ID,
		Timestamp: resp.Timestamp,
	}, nil
}

// ListChats retorna os chats conhecidos da conta. O transporte não expõe
// listagem sob demanda, então a fonte é o que o pipeline persistiu.
func (m *Manager) ListChats(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error) {
	if err := m.requireReady(accountID); err != nil {
		return nil, err
	}
	return m.chats.ListByAccount(ctx, accountID)
}

// FetchMessages retorna as mensagens mais recentes de um chat em ordem
// cronológica.
func (m *Manager) FetchMessages(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*chat.Message, error) {
	if err := m.requireReady(accountID); err != nil {
		return nil, err
	}
	return m.messages.ListRecent(ctx, accountID, chatJID, limit)
}

// Disconnect desconecta a conta e cancela qualquer reconexão pendente.
func (m *Manager) Disconnect(accountID uuid.UUID) error {
	return m.connectionManager.Disconnect(context.Background(), accountID)
}

// RemoveSession desconecta e remove a sessão do mapa em memória. A
// desativação de conta passa por aqui para não deixar um handle morto
// ocupando o session manager.
func (m *Manager) RemoveSession(accountID uuid.UUID) error {
	if !m.sessionManager.HasSession(accountID) {
		return nil
	}

	if err := m.connectionManager.Disconnect(context.Background(), accountID); err != nil {
		m.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Failed to disconnect before session removal")
	}

	return m.sessionManager.RemoveSession(accountID)
}

// Reconnect zera o backoff e reinicializa a conexão. É o caminho de
// recuperação manual para contas em needs_reconnect.
func (m *Manager) Reconnect(ctx context.Context, accountID uuid.UUID) (*whatsapp.Status, error) {
	if !m.sessionManager.HasSession(accountID) {
		return m.Initialize(ctx, accountID)
	}
	if err := m.connectionManager.Reconnect(ctx, accountID); err != nil {
		return nil, err
	}
	return m.GetStatus(accountID)
}

// GetQRCode retorna o QR code vigente. Consulta a memória primeiro e cai
// para o backup durável quando o processo reiniciou no meio do pareamento.
func (m *Manager) GetQRCode(ctx context.Context, accountID uuid.UUID) (string, error) {
	if code, err := m.qrManager.GetQRCode(accountID); err == nil && code != "" {
		return code, nil
	}

	state, err := m.sessionManager.GetSession(accountID)
	if err != nil {
		return "", err
	}
	if state.State != account.StateAwaitingQR {
		return "", whatsapp.ErrQRCodeNotAvailable
	}

	backup, err := m.qrManager.LatestBackup(ctx, accountID)
	if err == nil && backup != "" {
		return backup, nil
	}

	return "", whatsapp.ErrQRCodeNotAvailable
}

// RestoreSessions recria em memória as sessões de contas já autenticadas.
// Chamado uma vez na subida do processo.
func (m *Manager) RestoreSessions(ctx context.Context) error {
	m.logger.Info().Msg("Starting session restoration from database")

	accounts, err := m.accounts.ListAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to list authenticated accounts: %w", err)
	}

	if len(accounts) == 0 {
		m.logger.Info().Msg("No authenticated accounts found to restore")
		return nil
	}

	restored := 0
	for _, acc := range accounts {
		if _, err := m.sessionManager.RestoreSession(ctx, acc.ID, acc.WaJID); err != nil {
			m.logger.WithError(err).WithFields(map[string]interface{}{
				"accountId": acc.ID,
				"name":      acc.Name,
			}).Error().Msg("Failed to restore session")
			continue
		}
		restored++

		// Pausa curta para não sobrecarregar o store na subida.
		time.Sleep(100 * time.Millisecond)
	}

	m.logger.WithField("restoredCount", restored).Info().Msg("Session restoration completed")
	return nil
}

// ConnectRestoredSessions conecta em background as sessões restauradas.
func (m *Manager) ConnectRestoredSessions(ctx context.Context) {
	sessions := m.sessionManager.GetAllSessions()
	if len(sessions) == 0 {
		return
	}

	m.logger.WithField("count", len(sessions)).Info().Msg("Connecting restored sessions")

	for accountID := range sessions {
		go func(id uuid.UUID) {
			if err := m.connectionManager.Connect(ctx, id); err != nil {
				m.logger.WithError(err).WithField("accountId", id).Error().Msg("Failed to connect restored session")
			}
		}(accountID)

		// Espaçar as conexões para não disparar rajadas contra o transporte.
		time.Sleep(2 * time.Second)
	}
}

// requireReady valida que a sessão existe e está pronta para operar.
func (m *Manager) requireReady(accountID uuid.UUID) error {
	state, err := m.sessionManager.GetSession(accountID)
	if err != nil {
		return err
	}
	if state.State != account.StateReady {
		return whatsapp.ErrNotConnected
	}
	return nil
}

// Close encerra todos os componentes na ordem inversa da criação.
func (m *Manager) Close() error {
	m.logger.Info().Msg("Closing WhatsApp manager")

	m.connectionManager.Close()
	m.qrManager.Close()
	if err := m.sessionManager.Close(); err != nil {
		return err
	}

	return nil
}
