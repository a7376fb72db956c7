package chat

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/chat"
	"zcrm/pkg/logger"
)

// DefaultMessageLimit é o limite de mensagens retornadas quando o cliente
// não especifica um
const DefaultMessageLimit = 50

// GetMessagesUseCase implementa o caso de uso para buscar o histórico de
// mensagens de um chat
type GetMessagesUseCase struct {
	chatRepo    chat.ChatRepository
	messageRepo chat.MessageRepository
	logger      logger.Logger
}

// NewGetMessagesUseCase cria uma nova instância do caso de uso
func NewGetMessagesUseCase(
	chatRepo chat.ChatRepository,
	messageRepo chat.MessageRepository,
	logger logger.Logger,
) *GetMessagesUseCase {
	return &GetMessagesUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// GetMessagesResponse representa a resposta da busca de mensagens
type GetMessagesResponse struct {
	Messages []*chat.Message `json:"messages"`
	Total    int             `json:"total"`
}

// Execute executa o caso de uso para buscar as últimas mensagens de um chat.
// Zera o contador de não lidas do chat como efeito colateral da leitura.
func (uc *GetMessagesUseCase) Execute(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) (*GetMessagesResponse, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	if _, err := uc.chatRepo.GetByJID(ctx, accountID, chatJID); err != nil {
		return nil, err
	}

	messages, err := uc.messageRepo.ListRecent(ctx, accountID, chatJID, limit)
	if err != nil {
		uc.logger.WithError(err).WithField("chatJid", chatJID).Error().Msg("Failed to list messages")
		return nil, err
	}

	if err := uc.chatRepo.MarkRead(ctx, accountID, chatJID); err != nil {
		uc.logger.WithError(err).WithField("chatJid", chatJID).Warn().Msg("Failed to reset unread counter")
	}

	return &GetMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	}, nil
}
