package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// ReconnectAccountUseCase implementa o caso de uso de reconexão manual.
// É o caminho de recuperação para contas em needs_reconnect: zera o
// backoff antes de reinicializar.
type ReconnectAccountUseCase struct {
	accountRepo     account.Repository
	whatsappManager whatsapp.Manager
	logger          logger.Logger
}

// NewReconnectAccountUseCase cria uma nova instância do caso de uso
func NewReconnectAccountUseCase(
	accountRepo account.Repository,
	whatsappManager whatsapp.Manager,
	logger logger.Logger,
) *ReconnectAccountUseCase {
	return &ReconnectAccountUseCase{
		accountRepo:     accountRepo,
		whatsappManager: whatsappManager,
		logger:          logger,
	}
}

// Execute executa o caso de uso para reconectar uma conta
func (uc *ReconnectAccountUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*InitializeResponse, error) {
	uc.logger.WithField("accountId", accountID).Info().Msg("Reconnecting account")

	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, account.ErrAccountInactive
	}

	status, err := uc.whatsappManager.Reconnect(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to reconnect account")
		return nil, err
	}

	return &InitializeResponse{
		State:  status.State,
		QRCode: status.QRCode,
	}, nil
}
