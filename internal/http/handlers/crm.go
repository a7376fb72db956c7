package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"zcrm/internal/http/responses"
	"zcrm/internal/usecases/crm"
	"zcrm/pkg/logger"
)

// CRMHandler implementa os handlers para leads, tickets e contatos
type CRMHandler struct {
	leadsUseCase    *crm.ListLeadsUseCase
	ticketsUseCase  *crm.ListTicketsUseCase
	contactsUseCase *crm.ListContactsUseCase
	closeUseCase    *crm.CloseTicketUseCase
	logger          logger.Logger
}

// NewCRMHandler cria uma nova instância do CRM handler
func NewCRMHandler(
	leadsUseCase *crm.ListLeadsUseCase,
	ticketsUseCase *crm.ListTicketsUseCase,
	contactsUseCase *crm.ListContactsUseCase,
	closeUseCase *crm.CloseTicketUseCase,
	logger logger.Logger,
) *CRMHandler {
	return &CRMHandler{
		leadsUseCase:    leadsUseCase,
		ticketsUseCase:  ticketsUseCase,
		contactsUseCase: contactsUseCase,
		closeUseCase:    closeUseCase,
		logger:          logger.WithComponent("crm-handler"),
	}
}

// ListLeads lista os leads de uma conta
func (h *CRMHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	result, err := h.leadsUseCase.Execute(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Leads listados com sucesso", result)
}

// ListTickets lista os tickets de uma conta
func (h *CRMHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	result, err := h.ticketsUseCase.Execute(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Tickets listados com sucesso", result)
}

// ListContacts lista todos os contatos
func (h *CRMHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	result, err := h.contactsUseCase.Execute(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Contatos listados com sucesso", result)
}

// CloseTicket fecha o ticket aberto de um contato na conta
func (h *CRMHandler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		responses.BadRequest(w, "Invalid contact ID format", err.Error())
		return
	}

	ticket, err := h.closeUseCase.Execute(r.Context(), contactID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Ticket fechado", ticket)
}
