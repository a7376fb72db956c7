package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"zcrm/internal/domain/crm"
)

// contactRepository implementa a interface crm.ContactRepository
type contactRepository struct {
	db *bun.DB
}

// NewContactRepository cria uma nova instância do repositório de contatos
func NewContactRepository(db *bun.DB) crm.ContactRepository {
	return &contactRepository{db: db}
}

// GetByPhone busca um contato pelo telefone normalizado
func (r *contactRepository) GetByPhone(ctx context.Context, phone string) (*crm.Contact, error) {
	c := new(crm.Contact)
	err := r.db.NewSelect().Model(c).Where("phone = ?", phone).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, crm.ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create cria um contato novo
func (r *contactRepository) Create(ctx context.Context, c *crm.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	_, err := r.db.NewInsert().Model(c).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return crm.ErrConstraintViolation
	}
	return err
}

// Update atualiza um contato existente
func (r *contactRepository) Update(ctx context.Context, c *crm.Contact) error {
	c.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().Model(c).Where("id = ?", c.ID).Exec(ctx)
	return err
}

// List retorna todos os contatos
func (r *contactRepository) List(ctx context.Context) ([]*crm.Contact, error) {
	var contacts []*crm.Contact
	err := r.db.NewSelect().Model(&contacts).Order("createdAt DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

// leadRepository implementa a interface crm.LeadRepository
type leadRepository struct {
	db *bun.DB
}

// NewLeadRepository cria uma nova instância do repositório de leads
func NewLeadRepository(db *bun.DB) crm.LeadRepository {
	return &leadRepository{db: db}
}

// GetByContactAndAccount busca o lead único de (contato, conta)
func (r *leadRepository) GetByContactAndAccount(ctx context.Context, contactID, accountID uuid.UUID) (*crm.Lead, error) {
	l := new(crm.Lead)
	err := r.db.NewSelect().
		Model(l).
		Where("\"contactId\" = ?", contactID).
		Where("\"accountId\" = ?", accountID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, crm.ErrLeadNotFound
		}
		return nil, err
	}
	return l, nil
}

// Create cria um lead novo
func (r *leadRepository) Create(ctx context.Context, l *crm.Lead) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	if l.LastContactAt.IsZero() {
		l.LastContactAt = l.CreatedAt
	}

	_, err := r.db.NewInsert().Model(l).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return crm.ErrConstraintViolation
	}
	return err
}

// Update atualiza um lead existente
func (r *leadRepository) Update(ctx context.Context, l *crm.Lead) error {
	l.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().Model(l).Where("id = ?", l.ID).Exec(ctx)
	return err
}

// ListByAccount retorna os leads de uma conta
func (r *leadRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*crm.Lead, error) {
	var leads []*crm.Lead
	err := r.db.NewSelect().
		Model(&leads).
		Where("\"accountId\" = ?", accountID).
		Order("updatedAt DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return leads, nil
}

// DowngradeInactive rebaixa para "cold" leads sem contato desde o corte
func (r *leadRepository) DowngradeInactive(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*crm.Lead)(nil)).
		Set("status = ?", crm.LeadStatusCold).
		Set("\"updatedAt\" = ?", time.Now()).
		Where("\"lastContactAt\" < ?", cutoff).
		Where("status != ?", crm.LeadStatusCold).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return int(rows), nil
}

// DowngradeStaleHot rebaixa para "warm" leads "hot" sem follow-up desde o corte
func (r *leadRepository) DowngradeStaleHot(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*crm.Lead)(nil)).
		Set("status = ?", crm.LeadStatusWarm).
		Set("\"updatedAt\" = ?", time.Now()).
		Where("status = ?", crm.LeadStatusHot).
		Where("\"lastContactAt\" < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return int(rows), nil
}

// ticketRepository implementa a interface crm.TicketRepository
type ticketRepository struct {
	db *bun.DB
}

// NewTicketRepository cria uma nova instância do repositório de tickets
func NewTicketRepository(db *bun.DB) crm.TicketRepository {
	return &ticketRepository{db: db}
}

// GetOpen busca o ticket aberto de (contato, conta), se existir
func (r *ticketRepository) GetOpen(ctx context.Context, contactID, accountID uuid.UUID) (*crm.Ticket, error) {
	t := new(crm.Ticket)
	err := r.db.NewSelect().
		Model(t).
		Where("\"contactId\" = ?", contactID).
		Where("\"accountId\" = ?", accountID).
		Where("status = ?", crm.TicketStatusOpen).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, crm.ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create cria um ticket novo
func (r *ticketRepository) Create(ctx context.Context, t *crm.Ticket) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt

	_, err := r.db.NewInsert().Model(t).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return crm.ErrConstraintViolation
	}
	return err
}

// Update atualiza um ticket existente
func (r *ticketRepository) Update(ctx context.Context, t *crm.Ticket) error {
	t.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().Model(t).Where("id = ?", t.ID).Exec(ctx)
	return err
}

// ListByAccount retorna os tickets de uma conta
func (r *ticketRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*crm.Ticket, error) {
	var tickets []*crm.Ticket
	err := r.db.NewSelect().
		Model(&tickets).
		Where("\"accountId\" = ?", accountID).
		Order("updatedAt DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
