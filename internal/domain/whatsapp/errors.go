package whatsapp

import "errors"

var (
	// ErrNotConnected indica operação que exige estado Ready fora dele
	ErrNotConnected = errors.New("account not connected")

	// ErrTransportFailure indica falha do transporte em envio ou busca
	ErrTransportFailure = errors.New("transport failure")

	// ErrSendFailed indica que o envio não recebeu confirmação de entrega
	ErrSendFailed = errors.New("send failed")

	// ErrSessionNotFound indica que não há sessão registrada para a conta
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyExists indica que a sessão já está registrada
	ErrSessionAlreadyExists = errors.New("session already exists")

	// ErrQRCodeNotAvailable indica que não há QR code válido para a conta
	ErrQRCodeNotAvailable = errors.New("qr code not available")

	// ErrInvalidJID indica que o JID é inválido
	ErrInvalidJID = errors.New("invalid jid")
)
