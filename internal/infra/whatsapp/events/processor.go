package events

import (
	"context"
	"runtime/debug"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/types/events"

	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	sessionpkg "zcrm/internal/infra/whatsapp/session"
	"zcrm/pkg/logger"
)

// ConnectionEvents define o que o processor precisa do connection manager
// para reagir a quedas de conexão.
type ConnectionEvents interface {
	OnConnectionLost(accountID uuid.UUID)
}

// EventProcessor traduz eventos do whatsmeow em transições de ciclo de
// vida e entrega mensagens recebidas ao pipeline via EventSink. Roda no
// goroutine de eventos do whatsmeow, então nunca pode deixar um panic
// escapar nem bloquear por muito tempo.
type EventProcessor struct {
	sessionManager *sessionpkg.SessionManager
	connEvents     ConnectionEvents
	sink           whatsapp.EventSink
	logger         logger.Logger
}

// NewEventProcessor cria uma nova instância do EventProcessor.
func NewEventProcessor(
	sessionManager *sessionpkg.SessionManager,
	connEvents ConnectionEvents,
	log logger.Logger,
) *EventProcessor {
	return &EventProcessor{
		sessionManager: sessionManager,
		connEvents:     connEvents,
		logger:         log.WithComponent("event-processor"),
	}
}

// SetSink injeta o consumidor de mensagens. Separado do construtor porque
// o pipeline é montado depois do manager de conexões.
func (ep *EventProcessor) SetSink(sink whatsapp.EventSink) {
	ep.sink = sink
}

// ProcessEvent processa um evento do WhatsApp. Um panic aqui derrubaria o
// loop de eventos do cliente inteiro, então é recuperado e logado.
func (ep *EventProcessor) ProcessEvent(accountID uuid.UUID, evt interface{}) {
	defer func() {
		if r := recover(); r != nil {
			ep.logger.WithFields(map[string]interface{}{
				"accountId": accountID,
				"eventType": EventTypeName(evt),
				"panic":     r,
				"stack":     string(debug.Stack()),
			}).Error().Msg("Panic recovered while processing WhatsApp event")
		}
	}()

	switch v := evt.(type) {
	case *events.Connected:
		ep.handleConnected(accountID)
	case *events.Disconnected:
		ep.handleDisconnected(accountID)
	case *events.StreamReplaced:
		// Outra instância assumiu a sessão; tratar como queda.
		ep.handleDisconnected(accountID)
	case *events.LoggedOut:
		ep.handleLoggedOut(accountID)
	case *events.Message:
		ep.handleMessage(accountID, v)
	case *events.QR:
		// QR codes chegam pelo canal dedicado do QRCodeManager.
		ep.logger.WithField("accountId", accountID).Debug().Msg("QR event received - handled by QR manager")
	case *events.PairSuccess:
		ep.handlePairSuccess(accountID)
	case *events.PairError:
		ep.handlePairError(accountID, v)
	default:
		ep.logger.WithFields(map[string]interface{}{
			"accountId": accountID,
			"eventType": EventTypeName(evt),
		}).Trace().Msg("Unhandled WhatsApp event")
	}
}

// handleConnected promove a sessão para pronta.
func (ep *EventProcessor) handleConnected(accountID uuid.UUID) {
	ctx := context.Background()

	state, err := ep.sessionManager.GetSession(accountID)
	if err != nil {
		ep.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to get session for connected event")
		return
	}

	if state.Client != nil && state.Client.Store.ID != nil {
		jid := state.Client.Store.ID
		if err := ep.sessionManager.UpdateJID(accountID, jid); err != nil {
			ep.logger.WithError(err).Error().Msg("Failed to update session JID")
		}
		if err := ep.sessionManager.GetRepository().UpdateJID(ctx, accountID, jid.String()); err != nil {
			ep.logger.WithError(err).Error().Msg("Failed to persist JID")
		}
	}

	if err := ep.sessionManager.UpdateQRCode(accountID, ""); err != nil && err != whatsapp.ErrSessionNotFound {
		ep.logger.WithError(err).Error().Msg("Failed to clear QR code")
	}

	if err := ep.sessionManager.UpdateOnReady(ctx, accountID); err != nil {
		ep.logger.WithError(err).Error().Msg("Failed to persist ready state")
	}

	ep.logger.WithField("accountId", accountID).Info().Msg("Session ready")
}

// handleDisconnected registra a queda e delega a reconexão automática.
func (ep *EventProcessor) handleDisconnected(accountID uuid.UUID) {
	ep.logger.WithField("accountId", accountID).Warn().Msg("Session disconnected")

	if ep.connEvents != nil {
		ep.connEvents.OnConnectionLost(accountID)
	}
}

// handleLoggedOut limpa as credenciais. Logout remoto não dispara
// reconexão automática porque exige novo pareamento por QR.
func (ep *EventProcessor) handleLoggedOut(accountID uuid.UUID) {
	ep.logger.WithField("accountId", accountID).Warn().Msg("Session logged out remotely")

	if err := ep.sessionManager.UpdateOnLogout(context.Background(), accountID); err != nil {
		ep.logger.WithError(err).Error().Msg("Failed to persist logout")
	}
}

// handlePairSuccess registra o pareamento concluído. O evento Connected
// que vem na sequência promove a sessão para pronta.
func (ep *EventProcessor) handlePairSuccess(accountID uuid.UUID) {
	ctx := context.Background()

	state, err := ep.sessionManager.GetSession(accountID)
	if err != nil {
		ep.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to get session for pair success event")
		return
	}

	jid := ""
	if state.Client != nil && state.Client.Store.ID != nil {
		jid = state.Client.Store.ID.String()
	}

	if err := ep.sessionManager.UpdateOnAuthenticated(ctx, accountID, jid); err != nil {
		ep.logger.WithError(err).Error().Msg("Failed to persist authenticated state")
	}

	ep.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"jid":       jid,
	}).Info().Msg("Pairing successful")
}

// handlePairError registra a falha de pareamento.
func (ep *EventProcessor) handlePairError(accountID uuid.UUID, evt *events.PairError) {
	ep.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"error":     evt.Error.Error(),
	}).Error().Msg("Pairing failed")

	ep.sessionManager.RecordError(accountID, evt.Error)
}

// handleMessage converte a mensagem recebida e a entrega ao pipeline.
// Mensagens enviadas pela própria conta também passam pelo sink, com
// direção de saída, para alimentar o histórico das conversas.
func (ep *EventProcessor) handleMessage(accountID uuid.UUID, evt *events.Message) {
	body := ExtractMessageBody(evt.Message)
	if body == "" {
		ep.logger.WithFields(map[string]interface{}{
			"accountId": accountID,
			"messageId": evt.Info.ID,
			"kind":      MessageKind(evt.Message),
		}).Debug().Msg("Ignoring message without text content")
		return
	}

	direction := chat.DirectionInbound
	if evt.Info.IsFromMe {
		direction = chat.DirectionOutbound
	}

	msgEvent := whatsapp.MessageEvent{
		AccountID:   accountID,
		ChatJID:     evt.Info.Chat.String(),
		MessageID:   evt.Info.ID,
		Body:        body,
		Direction:   direction,
		SenderPhone: evt.Info.Sender.User,
		PushName:    evt.Info.PushName,
		IsGroup:     evt.Info.IsGroup,
		Timestamp:   evt.Info.Timestamp,
	}

	ep.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"messageId": msgEvent.MessageID,
		"chatJid":   msgEvent.ChatJID,
		"direction": direction,
	}).Debug().Msg("Message received")

	if ep.sink == nil {
		ep.logger.WithField("accountId", accountID).Warn().Msg("No message sink configured, dropping event")
		return
	}

	ep.sink.HandleMessageEvent(context.Background(), msgEvent)
}
