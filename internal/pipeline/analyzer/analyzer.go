package analyzer

import (
	"context"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
	"zcrm/pkg/logger"
)

// LeadPotentialThreshold é o potencial mínimo para qualificar um lead.
const LeadPotentialThreshold = 60

// DefaultMinMessages é o mínimo de mensagens recebidas antes de qualificar
// um lead sem sinal explícito de orçamento.
const DefaultMinMessages = 3

// AIProvider é o colaborador externo de geração de texto. Tratado como não
// confiável: qualquer erro aciona o caminho determinístico.
type AIProvider interface {
	AnalyzeConversation(ctx context.Context, messages []*chat.Message) (*analysis.Result, error)
	GenerateReply(ctx context.Context, agentPrompt string, messages []*chat.Message) (string, error)
}

// Analyzer classifica conversas. Caminho primário via IA quando habilitada;
// fallback por palavras-chave sempre disponível. Analyze nunca retorna erro:
// a análise sempre produz um resultado utilizável.
type Analyzer struct {
	ai          AIProvider
	aiEnabled   bool
	minMessages int
	logger      logger.Logger
}

// NewAnalyzer cria um analisador. Com ai nulo ou desabilitado só o fallback
// é usado.
func NewAnalyzer(ai AIProvider, aiEnabled bool, minMessages int, log logger.Logger) *Analyzer {
	if minMessages <= 0 {
		minMessages = DefaultMinMessages
	}
	return &Analyzer{
		ai:          ai,
		aiEnabled:   aiEnabled && ai != nil,
		minMessages: minMessages,
		logger:      log.WithComponent("analyzer"),
	}
}

// Analyze classifica a janela de mensagens (ordem cronológica, a última é o
// gatilho). O portão de qualificação de lead é aplicado ao resultado de
// qualquer um dos caminhos.
func (a *Analyzer) Analyze(ctx context.Context, messages []*chat.Message) *analysis.Result {
	var result *analysis.Result

	if a.aiEnabled {
		aiResult, err := a.ai.AnalyzeConversation(ctx, messages)
		if err != nil {
			a.logger.WithError(err).Debug().Msg("AI analysis failed, using fallback")
		} else {
			result = aiResult
		}
	}

	if result == nil {
		result = FallbackAnalyze(messages)
	}

	a.applyLeadGate(result, messages)

	a.logger.WithFields(map[string]interface{}{
		"intent":        result.Intent,
		"urgency":       result.Urgency,
		"leadPotential": result.LeadPotential,
		"createLead":    result.ShouldCreateLead,
		"createTicket":  result.ShouldCreateTicket,
		"source":        result.Source,
	}).Debug().Msg("Conversation analyzed")

	return result
}

// GenerateReply produz o texto da resposta automática. Falha da IA cai em
// uma resposta fixa por intenção, derivada de uma análise fallback rápida.
func (a *Analyzer) GenerateReply(ctx context.Context, agentPrompt string, messages []*chat.Message) string {
	if a.aiEnabled {
		reply, err := a.ai.GenerateReply(ctx, agentPrompt, messages)
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			a.logger.WithError(err).Debug().Msg("AI reply generation failed, using canned reply")
		}
	}

	result := FallbackAnalyze(messages)
	return cannedReply(result.Intent)
}

// applyLeadGate suprime a criação de lead para saudações soltas e conversas
// curtas demais. Um orçamento declarado qualifica mesmo na primeira
// mensagem.
func (a *Analyzer) applyLeadGate(result *analysis.Result, messages []*chat.Message) {
	if !result.ShouldCreateLead {
		return
	}

	if result.LeadPotential < LeadPotentialThreshold {
		result.ShouldCreateLead = false
		return
	}

	trigger := latestInbound(messages)
	if trigger == nil || IsBareGreeting(trigger.Body) {
		result.ShouldCreateLead = false
		return
	}

	inboundCount := 0
	for _, msg := range messages {
		if msg.IsInbound() {
			inboundCount++
		}
	}

	hasBudget := result.ExtractedInfo.Budget > 0
	if inboundCount < a.minMessages && !hasBudget {
		result.ShouldCreateLead = false
	}
}

func latestInbound(messages []*chat.Message) *chat.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsInbound() {
			return messages[i]
		}
	}
	return nil
}

// cannedReply devolve a resposta fixa usada quando a IA está indisponível.
func cannedReply(intent analysis.Intent) string {
	switch intent {
	case analysis.IntentSales:
		return "¡Gracias por tu interés! Un asesor comercial te contactará en breve con precios y disponibilidad."
	case analysis.IntentSupport:
		return "Lamentamos el inconveniente. Nuestro equipo técnico ya fue notificado y te contactará a la brevedad."
	case analysis.IntentComplaint:
		return "Lamentamos la experiencia. Tu reclamo fue registrado y un supervisor lo revisará hoy mismo."
	default:
		return "¡Hola! Gracias por escribirnos. ¿En qué podemos ayudarte?"
	}
}
