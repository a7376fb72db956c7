package chat

import "errors"

var (
	// ErrChatNotFound indica que o chat não foi encontrado
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound indica que a mensagem não foi encontrada
	ErrMessageNotFound = errors.New("message not found")

	// ErrDuplicateMessage indica que a constraint única de deduplicação
	// rejeitou a inserção. Não é uma falha: confirma processamento anterior.
	ErrDuplicateMessage = errors.New("duplicate message")
)
