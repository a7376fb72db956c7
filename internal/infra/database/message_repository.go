package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"zcrm/internal/domain/chat"
)

// messageRepository implementa a interface chat.MessageRepository
type messageRepository struct {
	db *bun.DB
}

// NewMessageRepository cria uma nova instância do repositório de mensagens
func NewMessageRepository(db *bun.DB) chat.MessageRepository {
	return &messageRepository{db: db}
}

// Insert persiste uma mensagem usando a constraint única como guarda
// autoritativa: pollers concorrentes que observarem o mesmo evento disputam
// aqui, e apenas um vence.
func (r *messageRepository) Insert(ctx context.Context, m *chat.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	res, err := r.db.NewInsert().
		Model(m).
		On("CONFLICT (\"accountId\", \"chatJid\", \"messageId\") DO NOTHING").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return chat.ErrDuplicateMessage
		}
		return err
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return chat.ErrDuplicateMessage
	}
	return nil
}

// GetByMessageID busca uma mensagem pela chave de deduplicação
func (r *messageRepository) GetByMessageID(ctx context.Context, accountID uuid.UUID, chatJID, messageID string) (*chat.Message, error) {
	m := new(chat.Message)
	err := r.db.NewSelect().
		Model(m).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Where("\"messageId\" = ?", messageID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, chat.ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListRecent retorna as últimas mensagens de um chat em ordem cronológica
func (r *messageRepository) ListRecent(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*chat.Message, error) {
	var messages []*chat.Message
	err := r.db.NewSelect().
		Model(&messages).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	// Inverter para ordem cronológica
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LastOutboundAfter verifica se existe mensagem enviada no chat após o instante dado
func (r *messageRepository) LastOutboundAfter(ctx context.Context, accountID uuid.UUID, chatJID string, after time.Time) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*chat.Message)(nil)).
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Where("direction = ?", chat.DirectionOutbound).
		Where("timestamp >= ?", after).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed grava o resultado da análise e marca a mensagem como processada
func (r *messageRepository) MarkProcessed(ctx context.Context, id uuid.UUID, analysis []byte) error {
	_, err := r.db.NewUpdate().
		Model((*chat.Message)(nil)).
		Set("processed = ?", true).
		Set("analysis = ?", analysis).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// LastSeenMessageID retorna o último messageId persistido para (conta, chat)
func (r *messageRepository) LastSeenMessageID(ctx context.Context, accountID uuid.UUID, chatJID string) (string, error) {
	var messageID string
	err := r.db.NewSelect().
		Model((*chat.Message)(nil)).
		Column("messageId").
		Where("\"accountId\" = ?", accountID).
		Where("\"chatJid\" = ?", chatJID).
		Order("timestamp DESC").
		Limit(1).
		Scan(ctx, &messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return messageID, nil
}
