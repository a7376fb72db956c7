package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository define as operações de persistência para contas
type Repository interface {
	// Create cria uma nova conta no banco de dados
	Create(ctx context.Context, acc *Account) error

	// GetByID busca uma conta pelo ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByName busca uma conta pelo nome
	GetByName(ctx context.Context, name string) (*Account, error)

	// List retorna todas as contas
	List(ctx context.Context) ([]*Account, error)

	// ListActive retorna todas as contas ativas
	ListActive(ctx context.Context) ([]*Account, error)

	// Update atualiza uma conta existente
	Update(ctx context.Context, acc *Account) error

	// UpdateState atualiza apenas o estado do ciclo de vida
	UpdateState(ctx context.Context, id uuid.UUID, state LifecycleState) error

	// UpdateJID atualiza o WhatsApp JID de uma conta
	UpdateJID(ctx context.Context, id uuid.UUID, jid string) error

	// UpdateAutoReply atualiza a configuração de resposta automática
	UpdateAutoReply(ctx context.Context, id uuid.UUID, enabled bool, delaySecs int, agentPrompt string) error

	// TouchActivity atualiza o timestamp de última atividade
	TouchActivity(ctx context.Context, id uuid.UUID) error

	// ExistsByName verifica se uma conta com o nome já existe
	ExistsByName(ctx context.Context, name string) (bool, error)

	// ListAuthenticated retorna contas ativas que já possuem WhatsApp JID
	ListAuthenticated(ctx context.Context) ([]*Account, error)

	// Deactivate marca uma conta como inativa (soft-disable)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
