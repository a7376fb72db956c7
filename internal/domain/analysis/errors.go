package analysis

import "errors"

var (
	// ErrUnavailable indica que o serviço externo de geração de texto falhou.
	// Sempre recuperável: o analisador cai para o caminho determinístico.
	ErrUnavailable = errors.New("analysis service unavailable")

	// ErrMalformedResponse indica que o serviço respondeu algo que não é o
	// JSON estrito solicitado. Tratado como ErrUnavailable pelo chamador.
	ErrMalformedResponse = errors.New("malformed analysis response")
)
