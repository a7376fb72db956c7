package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LifecycleState representa o estado do ciclo de vida da conexão de uma conta
type LifecycleState string

const (
	StateDisconnected LifecycleState = "disconnected"
	StateInitializing LifecycleState = "initializing"
	StateAwaitingQR   LifecycleState = "awaiting_qr"
	StateAuthenticated LifecycleState = "authenticated"
	StateReady        LifecycleState = "ready"

	// StateNeedsReconnect indica que o backoff esgotou as tentativas dentro
	// da janela configurada e a conta exige reconexão manual
	StateNeedsReconnect LifecycleState = "needs_reconnect"
)

// Account representa uma identidade WhatsApp gerenciada pelo CRM
type Account struct {
	bun.BaseModel `bun:"table:zcrm_accounts,alias:a"`

	ID             uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	Name           string         `bun:"name,type:varchar(100),notnull,unique" json:"name"`
	Phone          string         `bun:"phone,type:varchar(20)" json:"phone,omitempty"`
	WaJID          string         `bun:"waJid,type:varchar(100)" json:"waJid,omitempty"`
	State          LifecycleState `bun:"state,type:varchar(20),notnull" json:"state"`
	AutoReply      bool           `bun:"autoReply,type:boolean,notnull" json:"autoReply"`
	ReplyDelaySecs int            `bun:"replyDelaySecs,type:integer,notnull" json:"replyDelaySecs"`
	AgentPrompt    string         `bun:"agentPrompt,type:text" json:"agentPrompt,omitempty"`
	LastQRCode     string         `bun:"-" json:"qrCode,omitempty"` // Em memória; backup durável em zcrm_qr_backups
	IsActive       bool           `bun:"isActive,type:boolean" json:"isActive"`
	LastActivityAt *time.Time     `bun:"lastActivityAt,type:timestamptz" json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time      `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
	UpdatedAt      time.Time      `bun:"updatedAt,type:timestamptz,notnull" json:"updatedAt"`
}

// IsReady verifica se a conta está pronta para enviar/buscar mensagens
func (a *Account) IsReady() bool {
	return a.State == StateReady
}

// CanInitialize verifica se a conta pode iniciar uma nova conexão.
// Chamadas durante Initializing/AwaitingQR/Ready são no-ops idempotentes.
func (a *Account) CanInitialize() bool {
	return a.IsActive && (a.State == StateDisconnected || a.State == StateNeedsReconnect)
}

// ReplyDelay retorna o atraso configurado de resposta automática
func (a *Account) ReplyDelay() time.Duration {
	return time.Duration(a.ReplyDelaySecs) * time.Second
}

// SetState atualiza o estado do ciclo de vida
func (a *Account) SetState(state LifecycleState) {
	a.State = state
	a.UpdatedAt = time.Now()
}

// Touch atualiza o timestamp de última atividade
func (a *Account) Touch() {
	now := time.Now()
	a.LastActivityAt = &now
	a.UpdatedAt = now
}

// Deactivate desativa a conta (soft-disable; contas nunca são removidas
// enquanto existirem chats referenciando-as)
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
}
