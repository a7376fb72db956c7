package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"zcrm/internal/http/responses"
	"zcrm/internal/usecases/account"
	"zcrm/pkg/logger"
)

// AccountHandler implementa os handlers para contas
type AccountHandler struct {
	createUseCase     *account.CreateAccountUseCase
	listUseCase       *account.ListAccountsUseCase
	getUseCase        *account.GetAccountUseCase
	initializeUseCase *account.InitializeAccountUseCase
	statusUseCase     *account.GetStatusUseCase
	qrUseCase         *account.GetQRCodeUseCase
	disconnectUseCase *account.DisconnectAccountUseCase
	reconnectUseCase  *account.ReconnectAccountUseCase
	autoReplyUseCase  *account.ConfigureAutoReplyUseCase
	deactivateUseCase *account.DeactivateAccountUseCase
	logger            logger.Logger
}

// NewAccountHandler cria uma nova instância do account handler
func NewAccountHandler(
	createUseCase *account.CreateAccountUseCase,
	listUseCase *account.ListAccountsUseCase,
	getUseCase *account.GetAccountUseCase,
	initializeUseCase *account.InitializeAccountUseCase,
	statusUseCase *account.GetStatusUseCase,
	qrUseCase *account.GetQRCodeUseCase,
	disconnectUseCase *account.DisconnectAccountUseCase,
	reconnectUseCase *account.ReconnectAccountUseCase,
	autoReplyUseCase *account.ConfigureAutoReplyUseCase,
	deactivateUseCase *account.DeactivateAccountUseCase,
	logger logger.Logger,
) *AccountHandler {
	return &AccountHandler{
		createUseCase:     createUseCase,
		listUseCase:       listUseCase,
		getUseCase:        getUseCase,
		initializeUseCase: initializeUseCase,
		statusUseCase:     statusUseCase,
		qrUseCase:         qrUseCase,
		disconnectUseCase: disconnectUseCase,
		reconnectUseCase:  reconnectUseCase,
		autoReplyUseCase:  autoReplyUseCase,
		deactivateUseCase: deactivateUseCase,
		logger:            logger.WithComponent("account-handler"),
	}
}

// accountID extrai e valida o UUID da conta da URL
func accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		responses.BadRequest(w, "Invalid account ID format", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// CreateAccount cria uma nova conta
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req account.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responses.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		responses.BadRequest(w, "Validation failed", err.Error())
		return
	}

	acc, err := h.createUseCase.Execute(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error().Msg("Failed to create account")
		writeDomainError(w, err)
		return
	}

	responses.Created(w, "Conta criada com sucesso", acc)
}

// ListAccounts lista todas as contas
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	result, err := h.listUseCase.Execute(r.Context())
	if err != nil {
		h.logger.WithError(err).Error().Msg("Failed to list accounts")
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Contas listadas com sucesso", result)
}

// GetAccount obtém uma conta específica
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	acc, err := h.getUseCase.Execute(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Conta encontrada", acc)
}

// InitializeAccount inicia a conexão WhatsApp da conta
func (h *AccountHandler) InitializeAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	result, err := h.initializeUseCase.Execute(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error().Msg("Failed to initialize account")
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Conexão iniciada", result)
}

// GetStatus retorna o status da conexão da conta
func (h *AccountHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	status, err := h.statusUseCase.Execute(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Status da conta", status)
}

// GetQRCode retorna o QR code de pareamento da conta
func (h *AccountHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	result, err := h.qrUseCase.Execute(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "QR code disponível", result)
}

// DisconnectAccount desconecta a conta
func (h *AccountHandler) DisconnectAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.disconnectUseCase.Execute(r.Context(), id); err != nil {
		h.logger.WithError(err).Error().Msg("Failed to disconnect account")
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Conta desconectada", nil)
}

// ReconnectAccount força a reconexão da conta, cancelando o backoff pendente
func (h *AccountHandler) ReconnectAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	result, err := h.reconnectUseCase.Execute(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error().Msg("Failed to reconnect account")
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Reconexão iniciada", result)
}

// ConfigureAutoReply atualiza a configuração de resposta automática da conta
func (h *AccountHandler) ConfigureAutoReply(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req account.AutoReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responses.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		responses.BadRequest(w, "Validation failed", err.Error())
		return
	}

	acc, err := h.autoReplyUseCase.Execute(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Resposta automática configurada", acc)
}

// DeactivateAccount desativa a conta (soft-disable)
func (h *AccountHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.deactivateUseCase.Execute(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Conta desativada", nil)
}
