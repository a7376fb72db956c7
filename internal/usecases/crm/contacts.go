package crm

import (
	"context"

	"zcrm/internal/domain/crm"
	"zcrm/pkg/logger"
)

// ListContactsUseCase implementa o caso de uso para listar contatos
type ListContactsUseCase struct {
	contactRepo crm.ContactRepository
	logger      logger.Logger
}

// NewListContactsUseCase cria uma nova instância do caso de uso
func NewListContactsUseCase(contactRepo crm.ContactRepository, logger logger.Logger) *ListContactsUseCase {
	return &ListContactsUseCase{
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// ListContactsResponse representa a resposta da listagem de contatos
type ListContactsResponse struct {
	Contacts []*crm.Contact `json:"contacts"`
	Total    int            `json:"total"`
}

// Execute executa o caso de uso para listar todos os contatos
func (uc *ListContactsUseCase) Execute(ctx context.Context) (*ListContactsResponse, error) {
	contacts, err := uc.contactRepo.List(ctx)
	if err != nil {
		uc.logger.WithError(err).Error().Msg("Failed to list contacts")
		return nil, err
	}

	return &ListContactsResponse{
		Contacts: contacts,
		Total:    len(contacts),
	}, nil
}
