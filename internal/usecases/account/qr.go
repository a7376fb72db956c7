package account

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// GetQRCodeUseCase implementa o caso de uso para obter o QR code de
// pareamento de uma conta
type GetQRCodeUseCase struct {
	accountRepo     account.Repository
	whatsappManager whatsapp.Manager
	logger          logger.Logger
}

// NewGetQRCodeUseCase cria uma nova instância do caso de uso
func NewGetQRCodeUseCase(
	accountRepo account.Repository,
	whatsappManager whatsapp.Manager,
	logger logger.Logger,
) *GetQRCodeUseCase {
	return &GetQRCodeUseCase{
		accountRepo:     accountRepo,
		whatsappManager: whatsappManager,
		logger:          logger,
	}
}

// QRCodeResponse representa o QR code de uma conta
type QRCodeResponse struct {
	QRCode string `json:"qrCode"`
}

// Execute executa o caso de uso para obter o QR code
func (uc *GetQRCodeUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*QRCodeResponse, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	code, err := uc.whatsappManager.GetQRCode(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Debug().Msg("QR code not available")
		return nil, err
	}

	return &QRCodeResponse{QRCode: code}, nil
}
