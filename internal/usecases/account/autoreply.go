package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/pkg/logger"
)

// ConfigureAutoReplyUseCase implementa o caso de uso para ligar/desligar a
// resposta automática de uma conta. Desligar cancela os envios pendentes.
type ConfigureAutoReplyUseCase struct {
	accountRepo account.Repository
	canceller   PendingCanceller
	logger      logger.Logger
}

// NewConfigureAutoReplyUseCase cria uma nova instância do caso de uso
func NewConfigureAutoReplyUseCase(
	accountRepo account.Repository,
	canceller PendingCanceller,
	logger logger.Logger,
) *ConfigureAutoReplyUseCase {
	return &ConfigureAutoReplyUseCase{
		accountRepo: accountRepo,
		canceller:   canceller,
		logger:      logger,
	}
}

// AutoReplyRequest representa a configuração de resposta automática
type AutoReplyRequest struct {
	Enabled        bool    `json:"enabled"`
	ReplyDelaySecs *int    `json:"replyDelaySecs,omitempty" validate:"omitempty,min=0,max=300"`
	AgentPrompt    *string `json:"agentPrompt,omitempty" validate:"omitempty,max=2000"`
}

// Execute executa o caso de uso para configurar a resposta automática
func (uc *ConfigureAutoReplyUseCase) Execute(ctx context.Context, accountID uuid.UUID, req AutoReplyRequest) (*account.Account, error) {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	acc.AutoReply = req.Enabled
	if req.ReplyDelaySecs != nil {
		acc.ReplyDelaySecs = *req.ReplyDelaySecs
	}
	if req.AgentPrompt != nil {
		acc.AgentPrompt = *req.AgentPrompt
	}

	if err := uc.accountRepo.Update(ctx, acc); err != nil {
		uc.logger.WithError(err).Error().Msg("Failed to update auto-reply configuration")
		return nil, err
	}

	if !req.Enabled && uc.canceller != nil {
		uc.canceller.CancelAccount(accountID)
	}

	uc.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"enabled":   req.Enabled,
	}).Info().Msg("Auto-reply configuration updated")

	return acc, nil
}
