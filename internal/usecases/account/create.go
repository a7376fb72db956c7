package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"zcrm/internal/domain/account"
	"zcrm/pkg/logger"
)

// CreateAccountUseCase implementa o caso de uso para criar uma nova conta
type CreateAccountUseCase struct {
	accountRepo account.Repository
	logger      logger.Logger
}

// NewCreateAccountUseCase cria uma nova instância do caso de uso
func NewCreateAccountUseCase(accountRepo account.Repository, logger logger.Logger) *CreateAccountUseCase {
	return &CreateAccountUseCase{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// CreateAccountRequest representa os dados necessários para criar uma conta
type CreateAccountRequest struct {
	Name           string `json:"name" validate:"required,min=3,max=100"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,e164"`
	AutoReply      bool   `json:"autoReply"`
	ReplyDelaySecs int    `json:"replyDelaySecs" validate:"omitempty,min=0,max=300"`
	AgentPrompt    string `json:"agentPrompt,omitempty" validate:"omitempty,max=2000"`
}

// Execute executa o caso de uso para criar uma conta
func (uc *CreateAccountUseCase) Execute(ctx context.Context, req CreateAccountRequest) (*account.Account, error) {
	uc.logger.WithField("name", req.Name).Info().Msg("Creating new account")

	exists, err := uc.accountRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		uc.logger.WithError(err).Error().Msg("Failed to check if account exists")
		return nil, err
	}
	if exists {
		uc.logger.WithField("name", req.Name).Warn().Msg("Account with name already exists")
		return nil, account.ErrAccountAlreadyExists
	}

	newAccount := &account.Account{
		ID:             uuid.New(),
		Name:           req.Name,
		Phone:          req.Phone,
		State:          account.StateDisconnected,
		AutoReply:      req.AutoReply,
		ReplyDelaySecs: req.ReplyDelaySecs,
		AgentPrompt:    req.AgentPrompt,
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := uc.accountRepo.Create(ctx, newAccount); err != nil {
		uc.logger.WithError(err).Error().Msg("Failed to create account in database")
		return nil, err
	}

	uc.logger.WithFields(map[string]interface{}{
		"accountId": newAccount.ID,
		"name":      newAccount.Name,
	}).Info().Msg("Account created successfully")

	return newAccount, nil
}
