package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// Downstream recebe mensagens novas já persistidas e deduplicadas.
type Downstream interface {
	ProcessMessage(ctx context.Context, msg *chat.Message)
}

// Intake garante que cada messageId externo chega ao pipeline no máximo
// uma vez. O marcador em memória é uma otimização; a constraint única
// (accountId, chatJid, messageId) no banco é a guarda autoritativa contra
// corridas entre observadores concorrentes.
type Intake struct {
	messages chat.MessageRepository
	chats    chat.ChatRepository

	markers    *gocache.Cache
	downstream Downstream
	startedAt  time.Time

	logger logger.Logger
}

// NewIntake cria o intake. markerTTL limita a memória dos marcadores; a
// expiração de um marcador não ameaça a correção porque o banco segura a
// deduplicação.
func NewIntake(
	messages chat.MessageRepository,
	chats chat.ChatRepository,
	markerTTL time.Duration,
	log logger.Logger,
) *Intake {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	return &Intake{
		messages:  messages,
		chats:     chats,
		markers:   gocache.New(markerTTL, 2*markerTTL),
		startedAt: time.Now(),
		logger:    log.WithComponent("intake"),
	}
}

// SetDownstream injeta o próximo estágio do pipeline.
func (i *Intake) SetDownstream(d Downstream) {
	i.downstream = d
}

// HandleMessageEvent implementa whatsapp.EventSink. Nunca propaga erro nem
// panic para o loop de eventos do transporte.
func (i *Intake) HandleMessageEvent(ctx context.Context, evt whatsapp.MessageEvent) {
	if err := i.process(ctx, evt); err != nil {
		if errors.Is(err, chat.ErrDuplicateMessage) {
			// Resultado normal de dedup, não é falha.
			i.logger.WithFields(map[string]interface{}{
				"accountId": evt.AccountID,
				"messageId": evt.MessageID,
			}).Debug().Msg("Duplicate message discarded")
			return
		}
		i.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": evt.AccountID,
			"chatJid":   evt.ChatJID,
			"messageId": evt.MessageID,
		}).Error().Msg("Failed to ingest message event")
	}
}

// process aplica o algoritmo de dedup: marcador, frescor, persistência com
// constraint única, avanço do marcador e encaminhamento.
func (i *Intake) process(ctx context.Context, evt whatsapp.MessageEvent) error {
	marker := i.markerKey(evt.AccountID, evt.ChatJID)

	if lastSeen, found := i.markers.Get(marker); found && lastSeen == evt.MessageID {
		return chat.ErrDuplicateMessage
	}

	msg := &chat.Message{
		ID:          uuid.New(),
		AccountID:   evt.AccountID,
		ChatJID:     evt.ChatJID,
		MessageID:   evt.MessageID,
		Direction:   evt.Direction,
		Body:        evt.Body,
		SenderPhone: evt.SenderPhone,
		PushName:    evt.PushName,
		Timestamp:   evt.Timestamp,
		CreatedAt:   time.Now(),
	}

	if err := i.messages.Insert(ctx, msg); err != nil {
		if errors.Is(err, chat.ErrDuplicateMessage) {
			// A constraint rejeitou: outro observador processou primeiro.
			// Avançar o marcador confirma o processamento anterior.
			i.markers.SetDefault(marker, evt.MessageID)
			return chat.ErrDuplicateMessage
		}
		return fmt.Errorf("insert message: %w", err)
	}

	i.markers.SetDefault(marker, evt.MessageID)

	if err := i.upsertChat(ctx, evt); err != nil {
		i.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": evt.AccountID,
			"chatJid":   evt.ChatJID,
		}).Warn().Msg("Failed to upsert chat")
	}

	// Mensagens enviadas alimentam o histórico mas nunca o pipeline.
	if evt.Direction == chat.DirectionOutbound {
		return nil
	}

	// Mensagens anteriores à subida do processo são histórico entregue em
	// replay pelo transporte: persistidas acima, nunca reprocessadas.
	if evt.Timestamp.Before(i.startedAt) {
		i.logger.WithFields(map[string]interface{}{
			"accountId": evt.AccountID,
			"messageId": evt.MessageID,
			"timestamp": evt.Timestamp,
		}).Debug().Msg("Stale message persisted but not forwarded")
		return nil
	}

	if i.downstream != nil {
		i.downstream.ProcessMessage(ctx, msg)
	}
	return nil
}

// upsertChat mantém a linha do chat atualizada com o último contato.
func (i *Intake) upsertChat(ctx context.Context, evt whatsapp.MessageEvent) error {
	now := evt.Timestamp
	c := &chat.Chat{
		ID:            uuid.New(),
		AccountID:     evt.AccountID,
		ChatJID:       evt.ChatJID,
		Name:          evt.PushName,
		IsGroup:       evt.IsGroup,
		LastMessageAt: &now,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := i.chats.Upsert(ctx, c); err != nil {
		return err
	}

	if evt.Direction == chat.DirectionInbound {
		if err := i.chats.IncrementUnread(ctx, evt.AccountID, evt.ChatJID); err != nil {
			return err
		}
	}
	return nil
}

// WarmMarkers repovoa os marcadores a partir do banco após um restart,
// reduzindo round-trips de dedup nos chats mais ativos.
func (i *Intake) WarmMarkers(ctx context.Context, accountID uuid.UUID, chatJIDs []string) {
	for _, jid := range chatJIDs {
		lastSeen, err := i.messages.LastSeenMessageID(ctx, accountID, jid)
		if err != nil || lastSeen == "" {
			continue
		}
		i.markers.SetDefault(i.markerKey(accountID, jid), lastSeen)
	}
}

func (i *Intake) markerKey(accountID uuid.UUID, chatJID string) string {
	return accountID.String() + "|" + chatJID
}
