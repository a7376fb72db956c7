package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"zcrm/internal/domain/account"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/crm"
	"zcrm/internal/domain/whatsapp"
	"zcrm/internal/http/responses"
)

// validate é o validador compartilhado pelos handlers
var validate = validator.New()

// writeDomainError mapeia erros de domínio para o status HTTP apropriado
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, chat.ErrChatNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, crm.ErrContactNotFound),
		errors.Is(err, crm.ErrLeadNotFound),
		errors.Is(err, crm.ErrTicketNotFound),
		errors.Is(err, whatsapp.ErrSessionNotFound):
		responses.NotFound(w, err.Error())
	case errors.Is(err, account.ErrAccountAlreadyExists),
		errors.Is(err, whatsapp.ErrSessionAlreadyExists):
		responses.Conflict(w, err.Error(), "")
	case errors.Is(err, account.ErrAccountInactive),
		errors.Is(err, whatsapp.ErrNotConnected),
		errors.Is(err, whatsapp.ErrQRCodeNotAvailable),
		errors.Is(err, whatsapp.ErrInvalidJID):
		responses.BadRequest(w, err.Error(), "")
	default:
		responses.InternalError(w, "Internal server error")
	}
}
