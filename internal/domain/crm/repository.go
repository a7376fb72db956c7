package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContactRepository define as operações de persistência para contatos
type ContactRepository interface {
	// GetByPhone busca um contato pelo telefone normalizado
	GetByPhone(ctx context.Context, phone string) (*Contact, error)

	// Create cria um contato novo. Corridas na constraint única de telefone
	// retornam ErrConstraintViolation; o chamador rebusca.
	Create(ctx context.Context, c *Contact) error

	// Update atualiza um contato existente
	Update(ctx context.Context, c *Contact) error

	// List retorna todos os contatos
	List(ctx context.Context) ([]*Contact, error)
}

// LeadRepository define as operações de persistência para leads
type LeadRepository interface {
	// GetByContactAndAccount busca o lead único de (contato, conta)
	GetByContactAndAccount(ctx context.Context, contactID, accountID uuid.UUID) (*Lead, error)

	// Create cria um lead novo. Corridas na constraint única
	// (contactId, accountId) retornam ErrConstraintViolation.
	Create(ctx context.Context, l *Lead) error

	// Update atualiza um lead existente
	Update(ctx context.Context, l *Lead) error

	// ListByAccount retorna os leads de uma conta
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Lead, error)

	// DowngradeInactive rebaixa para "cold" leads sem contato desde o corte.
	// Único caminho autorizado a regredir status junto com DowngradeStaleHot.
	DowngradeInactive(ctx context.Context, cutoff time.Time) (int, error)

	// DowngradeStaleHot rebaixa para "warm" leads "hot" sem follow-up desde o corte
	DowngradeStaleHot(ctx context.Context, cutoff time.Time) (int, error)
}

// TicketRepository define as operações de persistência para tickets
type TicketRepository interface {
	// GetOpen busca o ticket aberto de (contato, conta), se existir
	GetOpen(ctx context.Context, contactID, accountID uuid.UUID) (*Ticket, error)

	// Create cria um ticket novo. O índice único parcial (um aberto por
	// contato/conta) resolve corridas com ErrConstraintViolation.
	Create(ctx context.Context, t *Ticket) error

	// Update atualiza um ticket existente
	Update(ctx context.Context, t *Ticket) error

	// ListByAccount retorna os tickets de uma conta
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Ticket, error)
}
