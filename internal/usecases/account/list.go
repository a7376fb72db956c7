package account

import (
	"context"

	"zcrm/internal/domain/account"
	"zcrm/pkg/logger"
)

// ListAccountsUseCase implementa o caso de uso para listar contas
type ListAccountsUseCase struct {
	accountRepo account.Repository
	logger      logger.Logger
}

// NewListAccountsUseCase cria uma nova instância do caso de uso
func NewListAccountsUseCase(accountRepo account.Repository, logger logger.Logger) *ListAccountsUseCase {
	return &ListAccountsUseCase{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// ListAccountsResponse representa a resposta da listagem de contas
type ListAccountsResponse struct {
	Accounts []*account.Account `json:"accounts"`
	Total    int                `json:"total"`
}

// Execute executa o caso de uso para listar todas as contas
func (uc *ListAccountsUseCase) Execute(ctx context.Context) (*ListAccountsResponse, error) {
	accounts, err := uc.accountRepo.List(ctx)
	if err != nil {
		uc.logger.WithError(err).Error().Msg("Failed to list accounts")
		return nil, err
	}

	return &ListAccountsResponse{
		Accounts: accounts,
		Total:    len(accounts),
	}, nil
}
