package connection

import (
	"math/rand"
	"time"
)

// BackoffPolicy define os limites da reconexão automática. As tentativas
// crescem exponencialmente a partir de MinDelay até o teto MaxDelay, e o
// contador de tentativas vive dentro de uma janela deslizante de duração
// Window. Estourar MaxAttempts dentro da janela exige intervenção manual.
type BackoffPolicy struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Window      time.Duration
}

// DefaultBackoffPolicy retorna a política usada quando a configuração não
// define valores próprios.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MinDelay:    2 * time.Second,
		MaxDelay:    2 * time.Minute,
		MaxAttempts: 8,
		Window:      15 * time.Minute,
	}
}

// BaseDelay calcula o atraso exponencial sem jitter para a tentativa
// informada (1-indexada). O resultado nunca fica abaixo de MinDelay nem
// acima de MaxDelay.
func (p BackoffPolicy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.MinDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// DelayFor retorna o atraso da tentativa com jitter aleatório de até 25%
// sobre a base, para evitar que várias contas reconectem em sincronia.
// O resultado nunca ultrapassa MaxDelay, mesmo com jitter.
func (p BackoffPolicy) DelayFor(attempt int) time.Duration {
	base := p.BaseDelay(attempt)
	jitter := time.Duration(rand.Int63n(int64(base)/4 + 1))

	delay := base + jitter
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Exhausted indica se o número de tentativas estourou o limite da janela.
func (p BackoffPolicy) Exhausted(attempts int) bool {
	return attempts > p.MaxAttempts
}
