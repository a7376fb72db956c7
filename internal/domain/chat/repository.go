package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatRepository define as operações de persistência para chats
type ChatRepository interface {
	// Upsert cria o chat se não existir e atualiza nome/último contato se existir
	Upsert(ctx context.Context, c *Chat) error

	// GetByJID busca um chat pelo par (conta, JID)
	GetByJID(ctx context.Context, accountID uuid.UUID, chatJID string) (*Chat, error)

	// ListByAccount retorna os chats de uma conta ordenados por atividade
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Chat, error)

	// Assign define (ou limpa, com "") o atendimento humano de um chat
	Assign(ctx context.Context, accountID uuid.UUID, chatJID string, assignee string) error

	// IncrementUnread incrementa o contador de não lidas
	IncrementUnread(ctx context.Context, accountID uuid.UUID, chatJID string) error

	// MarkRead zera o contador de não lidas
	MarkRead(ctx context.Context, accountID uuid.UUID, chatJID string) error
}

// MessageRepository define as operações de persistência para mensagens
type MessageRepository interface {
	// Insert persiste uma mensagem. Retorna ErrDuplicateMessage quando a
	// constraint única (accountId, chatJid, messageId) rejeita a linha,
	// sinal de processamento anterior e não de falha.
	Insert(ctx context.Context, m *Message) error

	// GetByMessageID busca uma mensagem pela chave de deduplicação
	GetByMessageID(ctx context.Context, accountID uuid.UUID, chatJID, messageID string) (*Message, error)

	// ListRecent retorna as últimas mensagens de um chat em ordem cronológica
	ListRecent(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*Message, error)

	// LastOutboundAfter verifica se existe mensagem enviada no chat no
	// instante dado ou depois dele. A comparação é inclusiva porque os
	// timestamps do transporte têm granularidade de segundo: uma resposta
	// no mesmo segundo do gatilho já conta como respondida.
	LastOutboundAfter(ctx context.Context, accountID uuid.UUID, chatJID string, after time.Time) (bool, error)

	// MarkProcessed grava o resultado da análise e marca a mensagem como processada
	MarkProcessed(ctx context.Context, id uuid.UUID, analysis []byte) error

	// LastSeenMessageID retorna o último messageId persistido para (conta, chat),
	// usado para repovoar o marcador de deduplicação após restart
	LastSeenMessageID(ctx context.Context, accountID uuid.UUID, chatJID string) (string, error)
}
