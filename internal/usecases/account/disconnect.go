package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// PendingCanceller cancela efeitos pendentes de uma conta (respostas
// automáticas agendadas).
type PendingCanceller interface {
	CancelAccount(accountID uuid.UUID)
}

// DisconnectAccountUseCase implementa o caso de uso para desconectar uma
// conta. Cancela o backoff de reconexão e os envios pendentes.
type DisconnectAccountUseCase struct {
	accountRepo     account.Repository
	whatsappManager whatsapp.Manager
	canceller       PendingCanceller
	logger          logger.Logger
}

// NewDisconnectAccountUseCase cria uma nova instância do caso de uso
func NewDisconnectAccountUseCase(
	accountRepo account.Repository,
	whatsappManager whatsapp.Manager,
	canceller PendingCanceller,
	logger logger.Logger,
) *DisconnectAccountUseCase {
	return &DisconnectAccountUseCase{
		accountRepo:     accountRepo,
		whatsappManager: whatsappManager,
		canceller:       canceller,
		logger:          logger,
	}
}

// Execute executa o caso de uso para desconectar uma conta
func (uc *DisconnectAccountUseCase) Execute(ctx context.Context, accountID uuid.UUID) error {
	uc.logger.WithField("accountId", accountID).Info().Msg("Disconnecting account")

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return err
	}

	if uc.canceller != nil {
		uc.canceller.CancelAccount(accountID)
	}

	if err := uc.whatsappManager.Disconnect(accountID); err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to disconnect account")
		return err
	}

	uc.logger.WithField("accountId", accountID).Info().Msg("Account disconnected")
	return nil
}
