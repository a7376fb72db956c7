package crm

import "errors"

var (
	// ErrContactNotFound indica que o contato não foi encontrado
	ErrContactNotFound = errors.New("contact not found")

	// ErrLeadNotFound indica que o lead não foi encontrado
	ErrLeadNotFound = errors.New("lead not found")

	// ErrTicketNotFound indica que o ticket não foi encontrado
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrConstraintViolation indica chave duplicada no banco. Para upserts
	// idempotentes é confirmação de processamento anterior, não falha.
	ErrConstraintViolation = errors.New("constraint violation")
)
