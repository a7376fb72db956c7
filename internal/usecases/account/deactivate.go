package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// DeactivateAccountUseCase implementa o caso de uso para desativar uma conta.
// Contas nunca são removidas; a desativação desconecta a sessão e suprime
// toda automação, preservando chats e mensagens existentes.
type DeactivateAccountUseCase struct {
	accountRepo     account.Repository
	whatsappManager whatsapp.Manager
	canceller       PendingCanceller
	logger          logger.Logger
}

// NewDeactivateAccountUseCase cria uma nova instância do caso de uso
func NewDeactivateAccountUseCase(
	accountRepo account.Repository,
	whatsappManager whatsapp.Manager,
	canceller PendingCanceller,
	logger logger.Logger,
) *DeactivateAccountUseCase {
	return &DeactivateAccountUseCase{
		accountRepo:     accountRepo,
		whatsappManager: whatsappManager,
		canceller:       canceller,
		logger:          logger,
	}
}

// Execute executa o caso de uso para desativar uma conta
func (uc *DeactivateAccountUseCase) Execute(ctx context.Context, accountID uuid.UUID) error {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return nil
	}

	if uc.canceller != nil {
		uc.canceller.CancelAccount(accountID)
	}

	// Desconecta e descarta a sessão em memória antes de marcar inativa;
	// falha aqui não impede a desativação, o scheduler ignora contas inativas
	if err := uc.whatsappManager.RemoveSession(accountID); err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Warn().Msg("Failed to remove session during deactivation")
	}

	if err := uc.accountRepo.Deactivate(ctx, accountID); err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to deactivate account")
		return err
	}

	uc.logger.WithField("accountId", accountID).Info().Msg("Account deactivated")
	return nil
}
