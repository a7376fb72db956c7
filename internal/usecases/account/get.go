package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/pkg/logger"
)

// GetAccountUseCase implementa o caso de uso para buscar uma conta
type GetAccountUseCase struct {
	accountRepo account.Repository
	logger      logger.Logger
}

// NewGetAccountUseCase cria uma nova instância do caso de uso
func NewGetAccountUseCase(accountRepo account.Repository, logger logger.Logger) *GetAccountUseCase {
	return &GetAccountUseCase{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Execute executa o caso de uso para buscar uma conta pelo ID
func (uc *GetAccountUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to get account")
		return nil, err
	}
	return acc, nil
}
