package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// InitializeAccountUseCase implementa o caso de uso para iniciar a conexão
// WhatsApp de uma conta. Idempotente: repetir a chamada enquanto a conexão
// está em andamento apenas retorna o status atual.
type InitializeAccountUseCase struct {
	accountRepo     account.Repository
	whatsappManager whatsapp.Manager
	logger          logger.Logger
}

// NewInitializeAccountUseCase cria uma nova instância do caso de uso
func NewInitializeAccountUseCase(
	accountRepo account.Repository,
	whatsappManager whatsapp.Manager,
	logger logger.Logger,
) *InitializeAccountUseCase {
	return &InitializeAccountUseCase{
		accountRepo:     accountRepo,
		whatsappManager: whatsappManager,
		logger:          logger,
	}
}

// InitializeResponse representa a resposta da inicialização
type InitializeResponse struct {
	State  account.LifecycleState `json:"state"`
	QRCode string                 `json:"qrCode,omitempty"`
}

// Execute executa o caso de uso para inicializar a conexão de uma conta
func (uc *InitializeAccountUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*InitializeResponse, error) {
	uc.logger.WithField("accountId", accountID).Info().Msg("Initializing account connection")

	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).Error().Msg("Failed to get account")
		return nil, err
	}
	if !acc.IsActive {
		return nil, account.ErrAccountInactive
	}

	status, err := uc.whatsappManager.Initialize(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to initialize connection")
		return nil, err
	}

	uc.logger.WithFields(map[string]interface{}{
		"accountId": accountID,
		"state":     status.State,
	}).Info().Msg("Account connection initiated")

	return &InitializeResponse{
		State:  status.State,
		QRCode: status.QRCode,
	}, nil
}
