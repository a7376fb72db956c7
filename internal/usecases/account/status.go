package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/whatsapp"
	"zcrm/pkg/logger"
)

// GetStatusUseCase implementa o caso de uso para consultar o status de
// conexão de uma conta. Nunca bloqueia: sem sessão em memória o status
// vem do estado persistido.
type GetStatusUseCase struct {
	accountRepo     account.Repository
	whatsappManager whatsapp.Manager
	logger          logger.Logger
}

// NewGetStatusUseCase cria uma nova instância do caso de uso
func NewGetStatusUseCase(
	accountRepo account.Repository,
	whatsappManager whatsapp.Manager,
	logger logger.Logger,
) *GetStatusUseCase {
	return &GetStatusUseCase{
		accountRepo:     accountRepo,
		whatsappManager: whatsappManager,
		logger:          logger,
	}
}

// StatusResponse representa o status de conexão de uma conta
type StatusResponse struct {
	AccountID   uuid.UUID              `json:"accountId"`
	State       account.LifecycleState `json:"state"`
	RetryCount  int                    `json:"retryCount,omitempty"`
	LastError   string                 `json:"lastError,omitempty"`
	ConnectedAt *time.Time             `json:"connectedAt,omitempty"`
}

// Execute executa o caso de uso para obter o status de uma conta
func (uc *GetStatusUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*StatusResponse, error) {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	status, err := uc.whatsappManager.GetStatus(accountID)
	if err != nil {
		if errors.Is(err, whatsapp.ErrSessionNotFound) {
			// Sem sessão viva; o banco guarda o último estado conhecido.
			return &StatusResponse{
				AccountID: accountID,
				State:     acc.State,
			}, nil
		}
		return nil, err
	}

	return &StatusResponse{
		AccountID:   accountID,
		State:       status.State,
		RetryCount:  status.RetryCount,
		LastError:   status.LastError,
		ConnectedAt: status.ConnectedAt,
	}, nil
}
