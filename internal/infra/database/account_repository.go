package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"zcrm/internal/domain/account"
)

// accountRepository implementa a interface account.Repository
type accountRepository struct {
	db *bun.DB
}

// NewAccountRepository cria uma nova instância do repositório de contas
func NewAccountRepository(db *bun.DB) account.Repository {
	return &accountRepository{db: db}
}

// Create cria uma nova conta no banco de dados
func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	acc.ID = uuid.New()
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = time.Now()
	acc.State = account.StateDisconnected
	acc.IsActive = true

	_, err := r.db.NewInsert().Model(acc).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return account.ErrAccountAlreadyExists
	}
	return err
}

// GetByID busca uma conta pelo ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc := new(account.Account)
	err := r.db.NewSelect().Model(acc).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// GetByName busca uma conta pelo nome
func (r *accountRepository) GetByName(ctx context.Context, name string) (*account.Account, error) {
	acc := new(account.Account)
	err := r.db.NewSelect().Model(acc).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// List retorna todas as contas
func (r *accountRepository) List(ctx context.Context) ([]*account.Account, error) {
	var accounts []*account.Account
	err := r.db.NewSelect().Model(&accounts).Order("createdAt DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListActive retorna todas as contas ativas
func (r *accountRepository) ListActive(ctx context.Context) ([]*account.Account, error) {
	var accounts []*account.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("\"isActive\" = ?", true).
		Order("createdAt DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update atualiza uma conta existente
func (r *accountRepository) Update(ctx context.Context, acc *account.Account) error {
	acc.UpdatedAt = time.Now()

	_, err := r.db.NewUpdate().
		Model(acc).
		Where("id = ?", acc.ID).
		Exec(ctx)

	return err
}

// UpdateState atualiza apenas o estado do ciclo de vida
func (r *accountRepository) UpdateState(ctx context.Context, id uuid.UUID, state account.LifecycleState) error {
	_, err := r.db.NewUpdate().
		Model((*account.Account)(nil)).
		Set("state = ?", state).
		Set("\"updatedAt\" = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

// UpdateJID atualiza o WhatsApp JID de uma conta
func (r *accountRepository) UpdateJID(ctx context.Context, id uuid.UUID, jid string) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*account.Account)(nil)).
		Set("\"waJid\" = ?", jid).
		Set("\"lastActivityAt\" = ?", now).
		Set("\"updatedAt\" = ?", now).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

// UpdateAutoReply atualiza a configuração de resposta automática
func (r *accountRepository) UpdateAutoReply(ctx context.Context, id uuid.UUID, enabled bool, delaySecs int, agentPrompt string) error {
	_, err := r.db.NewUpdate().
		Model((*account.Account)(nil)).
		Set("\"autoReply\" = ?", enabled).
		Set("\"replyDelaySecs\" = ?", delaySecs).
		Set("\"agentPrompt\" = ?", agentPrompt).
		Set("\"updatedAt\" = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

// TouchActivity atualiza o timestamp de última atividade
func (r *accountRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*account.Account)(nil)).
		Set("\"lastActivityAt\" = ?", now).
		Set("\"updatedAt\" = ?", now).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

// ExistsByName verifica se uma conta com o nome já existe
func (r *accountRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*account.Account)(nil)).
		Where("name = ?", name).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAuthenticated retorna contas ativas que já possuem WhatsApp JID
func (r *accountRepository) ListAuthenticated(ctx context.Context) ([]*account.Account, error) {
	var accounts []*account.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("\"waJid\" IS NOT NULL AND \"waJid\" != ''").
		Where("\"isActive\" = ?", true).
		Order("createdAt DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// Deactivate marca uma conta como inativa (soft-disable)
func (r *accountRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*account.Account)(nil)).
		Set("\"isActive\" = ?", false).
		Set("\"updatedAt\" = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)

	return err
}
