package crm

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/crm"
	"zcrm/pkg/logger"
)

// ListLeadsUseCase implementa o caso de uso para listar os leads de uma conta
type ListLeadsUseCase struct {
	leadRepo crm.LeadRepository
	logger   logger.Logger
}

// NewListLeadsUseCase cria uma nova instância do caso de uso
func NewListLeadsUseCase(leadRepo crm.LeadRepository, logger logger.Logger) *ListLeadsUseCase {
	return &ListLeadsUseCase{
		leadRepo: leadRepo,
		logger:   logger,
	}
}

// ListLeadsResponse representa a resposta da listagem de leads
type ListLeadsResponse struct {
	Leads []*crm.Lead `json:"leads"`
	Total int         `json:"total"`
}

// Execute executa o caso de uso para listar os leads de uma conta
func (uc *ListLeadsUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*ListLeadsResponse, error) {
	leads, err := uc.leadRepo.ListByAccount(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to list leads")
		return nil, err
	}

	return &ListLeadsResponse{
		Leads: leads,
		Total: len(leads),
	}, nil
}
