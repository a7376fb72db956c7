package chat

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// SendMessageUseCase implementa o caso de uso para enviar uma mensagem de
// texto manualmente por um operador
type SendMessageUseCase struct {
	whatsappManager whatsapp.Manager
	logger          logger.Logger
}

// NewSendMessageUseCase cria uma nova instância do caso de uso
func NewSendMessageUseCase(whatsappManager whatsapp.Manager, logger logger.Logger) *SendMessageUseCase {
	return &SendMessageUseCase{
		whatsappManager: whatsappManager,
		logger:          logger,
	}
}

// SendMessageRequest representa os dados para envio de mensagem
type SendMessageRequest struct {
	ChatJID string `json:"chatJid" validate:"required"`
	Body    string `json:"body" validate:"required,max=4096"`
}

// SendMessageResponse representa a confirmação do envio
type SendMessageResponse struct {
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

// Execute executa o caso de uso para enviar uma mensagem. O eco do envio
// volta pelo fluxo de eventos e é persistido pelo intake como outbound,
// então aqui apenas confirmamos a entrega ao transporte.
func (uc *SendMessageUseCase) Execute(ctx context.Context, accountID uuid.UUID, req SendMessageRequest) (*SendMessageResponse, error) {
	ack, err := uc.whatsappManager.SendMessage(ctx, accountID, req.ChatJID, req.Body)
	if err != nil {
		uc.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": accountID,
			"chatJid":   req.ChatJID,
		}).Error().Msg("Failed to send message")
		return nil, err
	}

	uc.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"chatJid":   req.ChatJID,
		"messageId": ack.MessageID,
	}).Info().Msg("Message sent")

	return &SendMessageResponse{
		MessageID: ack.MessageID,
		Timestamp: ack.Timestamp.Unix(),
	}, nil
}
