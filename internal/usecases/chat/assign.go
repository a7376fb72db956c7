package chat

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/chat"
	"zcrm/pkg/logger"
)

// PendingCanceller cancela respostas automáticas agendadas de uma conta
type PendingCanceller interface {
	CancelAccount(accountID uuid.UUID)
}

// AssignChatUseCase implementa o caso de uso para atribuir (ou liberar) o
// atendimento humano de um chat. Atribuição suprime a resposta automática
// do chat enquanto vigente.
type AssignChatUseCase struct {
	chatRepo  chat.ChatRepository
	canceller PendingCanceller
	logger    logger.Logger
}

// NewAssignChatUseCase cria uma nova instância do caso de uso
func NewAssignChatUseCase(
	chatRepo chat.ChatRepository,
	canceller PendingCanceller,
	logger logger.Logger,
) *AssignChatUseCase {
	return &AssignChatUseCase{
		chatRepo:  chatRepo,
		canceller: canceller,
		logger:    logger,
	}
}

// AssignChatRequest representa os dados da atribuição. Assignee vazio
// libera o chat de volta para a automação.
type AssignChatRequest struct {
	Assignee string `json:"assignee" validate:"omitempty,max=100"`
}

// Execute executa o caso de uso para atribuir um chat a um atendente
func (uc *AssignChatUseCase) Execute(ctx context.Context, accountID uuid.UUID, chatJID string, req AssignChatRequest) (*chat.Chat, error) {
	if _, err := uc.chatRepo.GetByJID(ctx, accountID, chatJID); err != nil {
		return nil, err
	}

	if err := uc.chatRepo.Assign(ctx, accountID, chatJID, req.Assignee); err != nil {
		uc.logger.WithError(err).WithField("chatJid", chatJID).Error().Msg("Failed to assign chat")
		return nil, err
	}

	// Atribuir cancela envios pendentes da conta; a revalidação pós-delay do
	// responder já filtraria por chat, mas cancelar cedo evita o trabalho
	if req.Assignee != "" && uc.canceller != nil {
		uc.canceller.CancelAccount(accountID)
	}

	uc.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"chatJid":   chatJID,
		"assignee":  req.Assignee,
	}).Info().Msg("Chat assignment updated")

	return uc.chatRepo.GetByJID(ctx, accountID, chatJID)
}
