package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"zcrm/internal/http/responses"
	"zcrm/internal/usecases/chat"
	"zcrm/pkg/logger"
)

// ChatHandler implementa os handlers para chats e mensagens
type ChatHandler struct {
	listUseCase     *chat.ListChatsUseCase
	messagesUseCase *chat.GetMessagesUseCase
	sendUseCase     *chat.SendMessageUseCase
	assignUseCase   *chat.AssignChatUseCase
	logger          logger.Logger
}

// NewChatHandler cria uma nova instância do chat handler
func NewChatHandler(
	listUseCase *chat.ListChatsUseCase,
	messagesUseCase *chat.GetMessagesUseCase,
	sendUseCase *chat.SendMessageUseCase,
	assignUseCase *chat.AssignChatUseCase,
	logger logger.Logger,
) *ChatHandler {
	return &ChatHandler{
		listUseCase:     listUseCase,
		messagesUseCase: messagesUseCase,
		sendUseCase:     sendUseCase,
		assignUseCase:   assignUseCase,
		logger:          logger.WithComponent("chat-handler"),
	}
}

// ListChats lista os chats de uma conta
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	result, err := h.listUseCase.Execute(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Chats listados com sucesso", result)
}

// GetMessages retorna o histórico de mensagens de um chat
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	chatJID := chi.URLParam(r, "chatJID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			responses.BadRequest(w, "Invalid limit parameter", raw)
			return
		}
		limit = parsed
	}

	result, err := h.messagesUseCase.Execute(r.Context(), id, chatJID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Mensagens listadas com sucesso", result)
}

// SendMessage envia uma mensagem de texto manualmente
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var req chat.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responses.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		responses.BadRequest(w, "Validation failed", err.Error())
		return
	}

	result, err := h.sendUseCase.Execute(r.Context(), id, req)
	if err != nil {
		h.logger.WithError(err).Error().Msg("Failed to send message")
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Mensagem enviada", result)
}

// AssignChat atribui (ou libera, com assignee vazio) o atendimento de um chat
func (h *ChatHandler) AssignChat(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	chatJID := chi.URLParam(r, "chatJID")

	var req chat.AssignChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responses.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		responses.BadRequest(w, "Validation failed", err.Error())
		return
	}

	result, err := h.assignUseCase.Execute(r.Context(), id, chatJID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses.Success(w, "Atribuição atualizada", result)
}
