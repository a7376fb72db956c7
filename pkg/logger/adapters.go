package logger

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// ============================================================================
// WHATSAPP ADAPTER
// ============================================================================

// WhatsAppLoggerInterface define a interface esperada pelo whatsmeow
type WhatsAppLoggerInterface interface {
	Errorf(string, ...any)
	Warnf(string, ...any)
	Infof(string, ...any)
	Debugf(string, ...any)
	Sub(string) WhatsAppLoggerInterface
}

// WhatsAppLoggerAdapter adapta nosso Logger para whatsmeow (otimizado)
type WhatsAppLoggerAdapter struct {
	logger Logger
}

// NewWhatsAppLoggerAdapter cria adaptador para whatsmeow
func NewWhatsAppLoggerAdapter(logger Logger) WhatsAppLoggerInterface {
	return &WhatsAppLoggerAdapter{logger: logger}
}

// Implementação da interface de logger do whatsmeow (otimizada)
func (w *WhatsAppLoggerAdapter) Errorf(msg string, args ...any) {
	if len(args) == 0 {
		w.logger.Error().Msg(msg)
	} else {
		w.logger.Error().Msgf(msg, args...)
	}
}

func (w *WhatsAppLoggerAdapter) Warnf(msg string, args ...any) {
	if len(args) == 0 {
		w.logger.Warn().Msg(msg)
	} else {
		w.logger.Warn().Msgf(msg, args...)
	}
}

func (w *WhatsAppLoggerAdapter) Infof(msg string, args ...any) {
	if len(args) == 0 {
		w.logger.Info().Msg(msg)
	} else {
		w.logger.Info().Msgf(msg, args...)
	}
}

func (w *WhatsAppLoggerAdapter) Debugf(msg string, args ...any) {
	if len(args) == 0 {
		w.logger.Debug().Msg(msg)
	} else {
		w.logger.Debug().Msgf(msg, args...)
	}
}

func (w *WhatsAppLoggerAdapter) Sub(module string) WhatsAppLoggerInterface {
	if module == "" {
		return w
	}
	return &WhatsAppLoggerAdapter{logger: w.logger.WithComponent(module)}
}

// ============================================================================
// BUN ORM ADAPTER
// ============================================================================

// BunQueryHook implementa hook para logging de queries do Bun ORM (otimizado)
type BunQueryHook struct {
	logger Logger
}

// NewBunQueryHook cria um novo hook para logging de queries do Bun
func NewBunQueryHook(logger Logger) bun.QueryHook {
	return &BunQueryHook{
		logger: logger.WithComponent("database"),
	}
}

// BeforeQuery é chamado antes da execução da query (otimizado)
func (h *BunQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	// Não fazer nada aqui para melhor performance
	return ctx
}

// AfterQuery é chamado após a execução da query (otimizado)
func (h *BunQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	durationMs := duration.Milliseconds()

	if event.Err != nil {
		// Erros sempre são logados com detalhes completos
		h.logger.Error().
			Err(event.Err).
			Str("query", h.sanitizeQuery(event.Query)).
			Dur("duration", duration).
			Int64("duration_ms", durationMs).
			Str("operation", h.getQueryOperation(event.Query)).
			Str("table", h.getQueryTable(event.Query)).
			Msg("Database query failed")
		return
	}

	// Queries de sucesso com logging inteligente (otimizado)
	h.logSuccessfulQuery(event.Query, duration, durationMs)
}

// logSuccessfulQuery aplica logging inteligente baseado no tipo e duração da query (otimizado)
func (h *BunQueryHook) logSuccessfulQuery(query string, duration time.Duration, durationMs int64) {
	operation := h.getQueryOperation(query)
	table := h.getQueryTable(query)

	// Queries muito rápidas (< 10ms) só logam em TRACE
	if durationMs < 10 && h.isRoutineQuery(query) {
		h.logger.Trace().
			Str("operation", operation).
			Str("table", table).
			Int64("duration_ms", durationMs).
			Msg("Fast DB operation")
		return
	}

	// Queries lentas (> 100ms) sempre logam como WARNING
	if durationMs > 100 {
		h.logger.Warn().
			Str("operation", operation).
			Str("table", table).
			Str("query", h.sanitizeQuery(query)).
			Int64("duration_ms", durationMs).
			Msg("Slow database query")
		return
	}

	// Queries normais logam em DEBUG com informações resumidas
	h.logger.Debug().
		Str("operation", operation).
		Str("table", table).
		Int64("duration_ms", durationMs).
		Msg("DB operation completed")
}

// isRoutineQuery verifica se é uma query rotineira (UPDATE de lastSeen, etc.)
func (h *BunQueryHook) isRoutineQuery(query string) bool {
	routinePatterns := []string{
		"SET \"lastSeen\"",
		"SET lastSeen",
		"SET status =",
		"SET \"updatedAt\"",
		"SET updatedAt",
	}

	queryLower := strings.ToLower(query)
	for _, pattern := range routinePatterns {
		if strings.Contains(queryLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// getQueryOperation extrai o tipo de operação da query
func (h *BunQueryHook) getQueryOperation(query string) string {
	query = strings.TrimSpace(strings.ToUpper(query))

	if strings.HasPrefix(query, "SELECT") {
		return "SELECT"
	} else if strings.HasPrefix(query, "INSERT") {
		return "INSERT"
	} else if strings.HasPrefix(query, "UPDATE") {
		return "UPDATE"
	} else if strings.HasPrefix(query, "DELETE") {
		return "DELETE"
	} else if strings.HasPrefix(query, "CREATE") {
		return "CREATE"
	} else if strings.HasPrefix(query, "ALTER") {
		return "ALTER"
	} else if strings.HasPrefix(query, "DROP") {
		return "DROP"
	}
	return "UNKNOWN"
}

// getQueryTable extrai o nome da tabela da query
func (h *BunQueryHook) getQueryTable(query string) string {
	queryUpper := strings.ToUpper(query)

	// Padrões para diferentes tipos de query
	patterns := []struct {
		operation string
		regex     string
	}{
		{"UPDATE", `UPDATE\s+"?([^"\s]+)"?`},
		{"INSERT", `INSERT\s+INTO\s+"?([^"\s]+)"?`},
		{"DELETE", `DELETE\s+FROM\s+"?([^"\s]+)"?`},
		{"SELECT", `FROM\s+"?([^"\s]+)"?`},
		{"CREATE", `CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?([^"\s]+)"?`},
	}

	for _, pattern := range patterns {
		if strings.Contains(queryUpper, pattern.operation) {
			// Implementação simples sem regex para evitar dependência
			return h.extractTableNameSimple(queryUpper, pattern.operation)
		}
	}

	return "unknown"
}

// extractTableNameSimple extrai nome da tabela de forma simples
func (h *BunQueryHook) extractTableNameSimple(query, operation string) string {
	var startKeyword string

	switch operation {
	case "UPDATE":
		startKeyword = "UPDATE"
	case "INSERT":
		startKeyword = "INTO"
	case "DELETE":
		startKeyword = "FROM"
	case "SELECT":
		startKeyword = "FROM"
	case "CREATE":
		startKeyword = "TABLE"
	default:
		return "unknown"
	}

	// Encontrar a posição da palavra-chave
	keywordPos := strings.Index(query, startKeyword)
	if keywordPos == -1 {
		return "unknown"
	}

	// Pegar o texto após a palavra-chave
	afterKeyword := strings.TrimSpace(query[keywordPos+len(startKeyword):])

	// Para CREATE TABLE, pular "IF NOT EXISTS"
	if operation == "CREATE" && strings.HasPrefix(afterKeyword, "IF NOT EXISTS") {
		afterKeyword = strings.TrimSpace(afterKeyword[13:])
	}

	// Pegar a primeira palavra (nome da tabela)
	parts := strings.Fields(afterKeyword)
	if len(parts) > 0 {
		tableName := parts[0]
		// Remover aspas se existirem
		tableName = strings.Trim(tableName, `"`)
		return strings.ToLower(tableName)
	}

	return "unknown"
}

// sanitizeQuery remove dados sensíveis e encurta a query para logging (otimizado)
func (h *BunQueryHook) sanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	// Limitar tamanho da query primeiro para melhor performance
	const maxLength = 200
	if len(query) > maxLength {
		query = query[:maxLength] + "..."
	}

	// Usar strings.Builder para melhor performance
	var builder strings.Builder
	builder.Grow(len(query)) // Pre-allocate capacity

	// Processar caractere por caractere para normalizar espaços
	var lastWasSpace bool
	for _, r := range query {
		switch r {
		case '\n', '\t', '\r':
			if !lastWasSpace {
				builder.WriteByte(' ')
				lastWasSpace = true
			}
		case ' ':
			if !lastWasSpace {
				builder.WriteByte(' ')
				lastWasSpace = true
			}
		default:
			builder.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(builder.String())
}

