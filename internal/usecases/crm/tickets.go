package crm

import (
	"context"

	"github.com/google/uuid"

	"zcrm/internal/domain/crm"
	"zcrm/pkg/logger"
)

// ListTicketsUseCase implementa o caso de uso para listar os tickets de uma conta
type ListTicketsUseCase struct {
	ticketRepo crm.TicketRepository
	logger     logger.Logger
}

// NewListTicketsUseCase cria uma nova instância do caso de uso
func NewListTicketsUseCase(ticketRepo crm.TicketRepository, logger logger.Logger) *ListTicketsUseCase {
	return &ListTicketsUseCase{
		ticketRepo: ticketRepo,
		logger:     logger,
	}
}

// ListTicketsResponse representa a resposta da listagem de tickets
type ListTicketsResponse struct {
	Tickets []*crm.Ticket `json:"tickets"`
	Total   int           `json:"total"`
}

// Execute executa o caso de uso para listar os tickets de uma conta
func (uc *ListTicketsUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*ListTicketsResponse, error) {
	tickets, err := uc.ticketRepo.ListByAccount(ctx, accountID)
	if err != nil {
		uc.logger.WithError(err).WithField("accountId", accountID).Error().Msg("Failed to list tickets")
		return nil, err
	}

	return &ListTicketsResponse{
		Tickets: tickets,
		Total:   len(tickets),
	}, nil
}

// CloseTicketUseCase implementa o caso de uso para fechar um ticket aberto
type CloseTicketUseCase struct {
	ticketRepo crm.TicketRepository
	logger     logger.Logger
}

// NewCloseTicketUseCase cria uma nova instância do caso de uso
func NewCloseTicketUseCase(ticketRepo crm.TicketRepository, logger logger.Logger) *CloseTicketUseCase {
	return &CloseTicketUseCase{
		ticketRepo: ticketRepo,
		logger:     logger,
	}
}

// Execute fecha o ticket aberto de (contato, conta). Fechar libera o índice
// parcial; a próxima conversa de suporte abre um ticket novo.
func (uc *CloseTicketUseCase) Execute(ctx context.Context, contactID, accountID uuid.UUID) (*crm.Ticket, error) {
	ticket, err := uc.ticketRepo.GetOpen(ctx, contactID, accountID)
	if err != nil {
		return nil, err
	}

	ticket.Close()
	if err := uc.ticketRepo.Update(ctx, ticket); err != nil {
		uc.logger.WithError(err).WithField("ticketId", ticket.ID).Error().Msg("Failed to close ticket")
		return nil, err
	}

	uc.logger.WithField("ticketId", ticket.ID).Info().Msg("Ticket closed")
	return ticket, nil
}
