package account

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Erros de domínio específicos para contas
var (
	// ErrAccountNotFound indica que a conta não foi encontrada
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists indica que uma conta com o nome já existe
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrAccountInactive indica que a conta está desativada
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidAccountName indica que o nome da conta é inválido
	ErrInvalidAccountName = errors.New("invalid account name")
)

// AccountError representa um erro de conta com contexto adicional
type AccountError struct {
	AccountID uuid.UUID
	Op        string
	Err       error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account %s: %s: %v", e.AccountID, e.Op, e.Err)
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// NewAccountError cria um novo erro de conta
func NewAccountError(accountID uuid.UUID, op string, err error) *AccountError {
	return &AccountError{
		AccountID: accountID,
		Op:        op,
		Err:       err,
	}
}
