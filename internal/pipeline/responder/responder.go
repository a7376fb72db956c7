package responder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/pipeline/analyzer"
	"zcrm/pkg/logger"
)

// Responder decide se e quando responder automaticamente a uma mensagem
// recebida. As esperas são agendadas por mensagem em goroutines próprias
// para nunca atrasar o intake de outras contas ou chats. Desabilitar a
// resposta automática ou desconectar a conta cancela os envios pendentes
// (melhor esforço: um envio já despachado ao transporte não volta).
type Responder struct {
	accounts account.Repository
	chats    chat.ChatRepository
	messages chat.MessageRepository
	analyzer *analyzer.Analyzer
	manager  whatsapp.Manager

	historyWindow int
	defaultDelay  time.Duration

	pending map[uuid.UUID]map[string]context.CancelFunc
	mutex   sync.Mutex

	logger logger.Logger
}

// NewResponder cria o orquestrador de respostas automáticas.
func NewResponder(
	accounts account.Repository,
	chats chat.ChatRepository,
	messages chat.MessageRepository,
	anlz *analyzer.Analyzer,
	manager whatsapp.Manager,
	historyWindow int,
	defaultDelay time.Duration,
	log logger.Logger,
) *Responder {
	if historyWindow <= 0 {
		historyWindow = 15
	}
	if defaultDelay <= 0 {
		defaultDelay = 3 * time.Second
	}
	return &Responder{
		accounts:      accounts,
		chats:         chats,
		messages:      messages,
		analyzer:      anlz,
		manager:       manager,
		historyWindow: historyWindow,
		defaultDelay:  defaultDelay,
		pending:       make(map[uuid.UUID]map[string]context.CancelFunc),
		logger:        log.WithComponent("responder"),
	}
}

// HandleInbound avalia as precondições e agenda a resposta com o atraso
// configurado na conta. Retorna imediatamente.
func (r *Responder) HandleInbound(ctx context.Context, msg *chat.Message) {
	if !msg.IsInbound() {
		// Filtro de direção: mensagem enviada nunca dispara resposta.
		return
	}

	acc, err := r.accounts.GetByID(ctx, msg.AccountID)
	if err != nil {
		r.logger.WithError(err).WithField("accountId", msg.AccountID).Warn().Msg("Failed to load account for auto-reply")
		return
	}
	if !acc.IsActive || !acc.AutoReply {
		return
	}

	ch, err := r.chats.GetByJID(ctx, msg.AccountID, msg.ChatJID)
	if err != nil && !errors.Is(err, chat.ErrChatNotFound) {
		r.logger.WithError(err).Warn().Msg("Failed to load chat for auto-reply")
		return
	}
	if ch != nil {
		// Atribuição humana sempre tem precedência sobre a automação.
		if ch.IsAssigned() {
			return
		}
		// Grupos não recebem resposta automática.
		if ch.IsGroup {
			return
		}
	}

	// A última mensagem enviada precisa ser anterior ao gatilho; caso
	// contrário já respondemos (ou um humano respondeu) depois dele.
	replied, err := r.messages.LastOutboundAfter(ctx, msg.AccountID, msg.ChatJID, msg.Timestamp)
	if err != nil {
		r.logger.WithError(err).Warn().Msg("Failed to check outbound history")
		return
	}
	if replied {
		return
	}

	delay := acc.ReplyDelay()
	if delay <= 0 {
		delay = r.defaultDelay
	}

	r.schedule(msg, delay)
}

// schedule registra o envio pendente e dispara a espera em background.
func (r *Responder) schedule(msg *chat.Message, delay time.Duration) {
	sendCtx, cancel := context.WithCancel(context.Background())

	r.mutex.Lock()
	byMessage, ok := r.pending[msg.AccountID]
	if !ok {
		byMessage = make(map[string]context.CancelFunc)
		r.pending[msg.AccountID] = byMessage
	}
	if _, exists := byMessage[msg.MessageID]; exists {
		// Já existe envio agendado para este gatilho.
		r.mutex.Unlock()
		cancel()
		return
	}
	byMessage[msg.MessageID] = cancel
	r.mutex.Unlock()

	r.logger.WithFields(map[string]interface{}{
		"accountId": msg.AccountID,
		"chatJid":   msg.ChatJID,
		"messageId": msg.MessageID,
		"delay":     delay.String(),
	}).Debug().Msg("Auto-reply scheduled")

	go r.waitAndSend(sendCtx, msg, delay)
}

// waitAndSend espera o atraso, revalida as precondições e envia.
func (r *Responder) waitAndSend(ctx context.Context, msg *chat.Message, delay time.Duration) {
	defer r.release(msg.AccountID, msg.MessageID)

	select {
	case <-ctx.Done():
		r.logger.WithFields(map[string]interface{}{
			"accountId": msg.AccountID,
			"messageId": msg.MessageID,
		}).Debug().Msg("Auto-reply cancelled")
		return
	case <-time.After(delay):
	}

	// Revalidação pós-atraso: a configuração pode ter mudado e outro
	// orquestrador (ou um humano) pode ter respondido durante a espera.
	acc, err := r.accounts.GetByID(ctx, msg.AccountID)
	if err != nil || !acc.IsActive || !acc.AutoReply {
		return
	}

	ch, err := r.chats.GetByJID(ctx, msg.AccountID, msg.ChatJID)
	if err == nil && ch != nil && ch.IsAssigned() {
		return
	}

	replied, err := r.messages.LastOutboundAfter(ctx, msg.AccountID, msg.ChatJID, msg.Timestamp)
	if err != nil {
		r.logger.WithError(err).Warn().Msg("Failed to re-check outbound history, skipping auto-reply")
		return
	}
	if replied {
		return
	}

	history, err := r.messages.ListRecent(ctx, msg.AccountID, msg.ChatJID, r.historyWindow)
	if err != nil || len(history) == 0 {
		history = []*chat.Message{msg}
	}

	reply := r.analyzer.GenerateReply(ctx, acc.AgentPrompt, history)
	if reply == "" {
		return
	}

	ack, err := r.manager.SendMessage(ctx, msg.AccountID, msg.ChatJID, reply)
	if err != nil {
		r.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": msg.AccountID,
			"chatJid":   msg.ChatJID,
		}).Error().Msg("Auto-reply send failed")
		return
	}

	r.logger.WithFields(map[string]interface{}{
		"accountId": msg.AccountID,
		"chatJid":   msg.ChatJID,
		"trigger":   msg.MessageID,
		"messageId": ack.MessageID,
	}).Info().Msg("Auto-reply sent")
}

// CancelAccount cancela todos os envios pendentes de uma conta. Chamado ao
// desabilitar a resposta automática ou desconectar a conta.
func (r *Responder) CancelAccount(accountID uuid.UUID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	byMessage, ok := r.pending[accountID]
	if !ok {
		return
	}
	for messageID, cancel := range byMessage {
		cancel()
		delete(byMessage, messageID)
	}
	delete(r.pending, accountID)

	r.logger.WithField("accountId", accountID).Info().Msg("Pending auto-replies cancelled")
}

// PendingCount retorna o número de envios agendados da conta.
func (r *Responder) PendingCount(accountID uuid.UUID) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.pending[accountID])
}

// release remove o registro de envio pendente após conclusão ou cancelamento.
func (r *Responder) release(accountID uuid.UUID, messageID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if byMessage, ok := r.pending[accountID]; ok {
		delete(byMessage, messageID)
		if len(byMessage) == 0 {
			delete(r.pending, accountID)
		}
	}
}

// Close cancela todos os envios pendentes de todas as contas.
func (r *Responder) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for accountID, byMessage := range r.pending {
		for _, cancel := range byMessage {
			cancel()
		}
		delete(r.pending, accountID)
	}

	r.logger.Info().Msg("Responder closed")
}
