package chat

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/chat"
	"zcrm/pkg/logger"
)

// ListChatsUseCase implementa o caso de uso para listar os chats de uma conta
type ListChatsUseCase struct {
	chatRepo chat.ChatRepository
	logger   logger.Logger
}

// NewListChatsUseCase cria uma nova instância do caso de uso
func NewListChatsUseCase(chatRepo chat.ChatRepository, logger logger.Logger) *ListChatsUseCase {
	return &ListChatsUseCase{
		chatRepo: chatRepo,
		logger:   logger,
	}
}

// ListChatsResponse representa a resposta da listagem de chats
type ListChatsResponse struct {
	Chats []*chat.Chat `json:"chats"`
	Total int          `json:"total"`
}

// Execute executa o caso de uso para listar os chats de uma conta
func (uc *ListChatsUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*ListChatsResponse, error) {
	chats, err := uc.chatRepo.ListByAccount(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to list chats")
		return nil, err
	}

	return &ListChatsResponse{
		Chats: chats,
		Total: len(chats),
	}, nil
}
