package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Direction indica o sentido de uma mensagem
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Chat representa uma conversa (individual ou grupo) escopada a uma conta
type Chat struct {
	bun.BaseModel `bun:"table:zcrm_chats,alias:c"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	AccountID     uuid.UUID  `bun:"accountId,type:uuid,notnull" json:"accountId"`
	ChatJID       string     `bun:"chatJid,type:varchar(100),notnull" json:"chatJid"`
	Name          string     `bun:"name,type:varchar(255)" json:"name,omitempty"`
	IsGroup       bool       `bun:"isGroup,type:boolean,notnull" json:"isGroup"`
	UnreadCount   int        `bun:"unreadCount,type:integer,notnull" json:"unreadCount"`
	AssignedTo    string     `bun:"assignedTo,type:varchar(100)" json:"assignedTo,omitempty"`
	LastMessageAt *time.Time `bun:"lastMessageAt,type:timestamptz" json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
	UpdatedAt     time.Time  `bun:"updatedAt,type:timestamptz,notnull" json:"updatedAt"`
}

// IsAssigned verifica se o chat possui atendimento humano. Atribuição manual
// sempre tem precedência e suprime a resposta automática.
func (c *Chat) IsAssigned() bool {
	return c.AssignedTo != ""
}

// Message representa uma mensagem imutável de um chat.
// (accountId, chatJid, messageId) é a chave de deduplicação.
type Message struct {
	bun.BaseModel `bun:"table:zcrm_messages,alias:m"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	AccountID   uuid.UUID `bun:"accountId,type:uuid,notnull" json:"accountId"`
	ChatJID     string    `bun:"chatJid,type:varchar(100),notnull" json:"chatJid"`
	MessageID   string    `bun:"messageId,type:varchar(100),notnull" json:"messageId"`
	Direction   Direction `bun:"direction,type:varchar(10),notnull" json:"direction"`
	Body        string    `bun:"body,type:text" json:"body"`
	SenderPhone string    `bun:"senderPhone,type:varchar(20)" json:"senderPhone,omitempty"`
	PushName    string    `bun:"pushName,type:varchar(255)" json:"pushName,omitempty"`
	Timestamp   time.Time `bun:"timestamp,type:timestamptz,notnull" json:"timestamp"`
	Processed   bool      `bun:"processed,type:boolean,notnull" json:"processed"`
	Analysis    []byte    `bun:"analysis,type:jsonb,nullzero" json:"analysis,omitempty"`
	CreatedAt   time.Time `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
}

// IsInbound verifica se a mensagem foi recebida (e não enviada por nós)
func (m *Message) IsInbound() bool {
	return m.Direction == DirectionInbound
}
