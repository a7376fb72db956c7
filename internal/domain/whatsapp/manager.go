package whatsapp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
)

// Status é uma fotografia do ciclo de vida da conexão de uma conta
type Status struct {
	AccountID   uuid.UUID              `json:"accountId"`
	State       account.LifecycleState `json:"state"`
	QRCode      string                 `json:"qrCode,omitempty"`
	RetryCount  int                    `json:"retryCount"`
	LastError   string                 `json:"lastError,omitempty"`
	ConnectedAt *time.Time             `json:"connectedAt,omitempty"`
}

// SendAck é a confirmação de entrega de um envio ao transporte
type SendAck struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

// Manager gerencia o ciclo de vida das sessões WhatsApp de todas as contas.
// É o único componente autorizado a tocar nos handles do transporte.
type Manager interface {
	// Initialize inicia (ou retoma) a conexão de uma conta. Idempotente:
	// chamadas durante Initializing/AwaitingQR/Ready não criam um segundo
	// cliente e apenas retornam o status atual.
	Initialize(ctx context.Context, accountID uuid.UUID) (*Status, error)

	// GetStatus retorna o estado atual sem bloquear
	GetStatus(accountID uuid.UUID) (*Status, error)

	// SendMessage envia texto para um chat. Exige estado Ready; caso
	// contrário falha com ErrNotConnected.
	SendMessage(ctx context.Context, accountID uuid.UUID, chatJID, body string) (*SendAck, error)

	// ListChats retorna os chats conhecidos da conta. Exige Ready.
	ListChats(ctx context.Context, accountID uuid.UUID) ([]*chat.Chat, error)

	// FetchMessages retorna as últimas mensagens de um chat. Exige Ready.
	FetchMessages(ctx context.Context, accountID uuid.UUID, chatJID string, limit int) ([]*chat.Message, error)

	// Disconnect desconecta explicitamente uma conta e cancela qualquer
	// backoff de reconexão pendente
	Disconnect(accountID uuid.UUID) error

	// Reconnect cancela o backoff em andamento e reinicializa a conexão
	Reconnect(ctx context.Context, accountID uuid.UUID) (*Status, error)

	// RemoveSession desconecta e descarta a sessão em memória da conta.
	// Usado na desativação; sem sessão registrada é um no-op.
	RemoveSession(accountID uuid.UUID) error

	// GetQRCode retorna o QR atual (memória ou backup durável), regenerando
	// quando vencido o TTL
	GetQRCode(ctx context.Context, accountID uuid.UUID) (string, error)
}

// MessageEvent é o evento bruto de mensagem entregue pelo transporte ao
// pipeline de intake
type MessageEvent struct {
	AccountID   uuid.UUID
	ChatJID     string
	MessageID   string
	Body        string
	Direction   chat.Direction
	SenderPhone string
	PushName    string
	IsGroup     bool
	Timestamp   time.Time
}

// EventSink recebe eventos de mensagem do processador de eventos.
// Implementado pelo intake do pipeline.
type EventSink interface {
	HandleMessageEvent(ctx context.Context, evt MessageEvent)
}
