package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"zcrm/internal/domain/chat"
)

// chatRepository implementa a interface chat.ChatRepository
type chatRepository struct {
	db *bun.DB
}

// NewChatRepository cria uma nova instância do repositório de chats
func NewChatRepository(db *bun.DB) chat.ChatRepository {
	return &chatRepository{db: db}
}

// Upsert cria o chat se não existir e atualiza nome/último contato se existir
func (r *chatRepository) Upsert(ctx context.Context, c *chat.Chat) error {
	now := time.Now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(c).
		On("CONFLICT (\"accountId\", \"chatJid\") DO UPDATE").
		Set("name = COALESCE(NULLIF(EXCLUDED.name, ''), c.name)").
		Set("\"lastMessageAt\" = EXCLUDED.\"lastMessageAt\"").
		Set("\"updatedAt\" = EXCLUDED.\"updatedAt\"").
		Exec(ctx)

	return err
}

// GetByJID busca um chat pelo par (conta, JID)
func (r *chatRepository) GetByJID(ctx context.Context, accountID uuid.UUID, chatJID string) (*chat.Chat, error) {
	c := new(chat.Chat)
	err := r.db.NewSelect().
		Model(c).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, chat.ErrChatNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByAccount retorna os chats de uma conta ordenados por atividade
func (r *chatRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error) {
	var chats []*chat.Chat
	err := r.db.NewSelect().
		Model(&chats).
		Where("\"accountId\" = ?", accountID).
		Order("lastMessageAt DESC NULLS LAST").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// Assign define (ou limpa, com "") o atendimento humano de um chat
func (r *chatRepository) Assign(ctx context.Context, accountID uuid.UUID, chatJID string, assignee string) error {
	res, err := r.db.NewUpdate().
		Model((*chat.Chat)(nil)).
		Set("\"assignedTo\" = ?", assignee).
		Set("\"updatedAt\" = ?", time.Now()).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return chat.ErrChatNotFound
	}
	return nil
}

// IncrementUnread incrementa o contador de não lidas
func (r *chatRepository) IncrementUnread(ctx context.Context, accountID uuid.UUID, chatJID string) error {
	_, err := r.db.NewUpdate().
		Model((*chat.Chat)(nil)).
		Set("\"unreadCount\" = \"unreadCount\" + 1").
		Set("\"updatedAt\" = ?", time.Now()).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Exec(ctx)
	return err
}

// MarkRead zera o contador de não lidas
func (r *chatRepository) MarkRead(ctx context.Context, accountID uuid.UUID, chatJID string) error {
	_, err := r.db.NewUpdate().
		Model((*chat.Chat)(nil)).
		Set("\"unreadCount\" = 0").
		Set("\"updatedAt\" = ?", time.Now()).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Exec(ctx)
	return err
}
