package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
	"zcrm/pkg/logger"
)

// fakeAI é um AIProvider controlável para os testes
type fakeAI struct {
	result *analysis.Result
	reply  string
	err    error
	calls  int
}

func (f *fakeAI) AnalyzeConversation(ctx context.Context, messages []*chat.Message) (*analysis.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAI) GenerateReply(ctx context.Context, agentPrompt string, messages []*chat.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestAnalyzeFallsBackWhenAIFails(t *testing.T) {
	ai := &fakeAI{err: analysis.ErrUnavailable}
	a := NewAnalyzer(ai, true, 3, logger.SetupForTesting())

	result := a.Analyze(context.Background(), []*chat.Message{
		inboundMsg("Necesito internet para mi oficina, presupuesto 500"),
	})

	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, analysis.SourceFallback, result.Source)
	assert.Equal(t, analysis.IntentSales, result.Intent)
	assert.True(t, result.ShouldCreateLead)
}

func TestAnalyzeUsesAIResult(t *testing.T) {
	ai := &fakeAI{result: &analysis.Result{
		Sentiment:        analysis.SentimentPositive,
		Intent:           analysis.IntentSales,
		Urgency:          analysis.UrgencyMedium,
		LeadPotential:    75,
		ShouldCreateLead: true,
		Source:           analysis.SourceAI,
	}}
	a := NewAnalyzer(ai, true, 3, logger.SetupForTesting())

	result := a.Analyze(context.Background(), []*chat.Message{
		inboundMsg("Quiero contratar el plan de fibra"),
		inboundMsg("Para cuando pueden instalar?"),
		inboundMsg("Perfecto, avanzamos"),
	})

	assert.Equal(t, analysis.SourceAI, result.Source)
	assert.Equal(t, 75, result.LeadPotential)
	assert.True(t, result.ShouldCreateLead)
}

func TestLeadGateSuppressesBareGreeting(t *testing.T) {
	// Mesmo que a IA devolva potencial alto, uma saudação solta nunca vira
	// lead.
	ai := &fakeAI{result: &analysis.Result{
		Sentiment:        analysis.SentimentNeutral,
		Intent:           analysis.IntentInquiry,
		Urgency:          analysis.UrgencyLow,
		LeadPotential:    90,
		ShouldCreateLead: true,
		Source:           analysis.SourceAI,
	}}
	a := NewAnalyzer(ai, true, 3, logger.SetupForTesting())

	result := a.Analyze(context.Background(), []*chat.Message{inboundMsg("hola")})

	assert.False(t, result.ShouldCreateLead)
}

func TestLeadGateRequiresMinimumConversation(t *testing.T) {
	a := NewAnalyzer(nil, false, 3, logger.SetupForTesting())

	// Duas mensagens com sinal de venda mas sem orçamento: ainda não
	// qualifica.
	result := a.Analyze(context.Background(), []*chat.Message{
		inboundMsg("Quiero contratar internet fibra para mi oficina"),
		inboundMsg("Que planes y precios tienen para instalar?"),
	})
	assert.False(t, result.ShouldCreateLead)

	// A terceira mensagem recebida libera o portão.
	result = a.Analyze(context.Background(), []*chat.Message{
		inboundMsg("Quiero contratar internet fibra para mi oficina"),
		inboundMsg("Que planes y precios tienen para instalar?"),
		inboundMsg("Necesito el servicio este mes"),
	})
	assert.True(t, result.ShouldCreateLead)
}

func TestLeadGateBudgetBypassesMinimum(t *testing.T) {
	a := NewAnalyzer(nil, false, 3, logger.SetupForTesting())

	result := a.Analyze(context.Background(), []*chat.Message{
		inboundMsg("Necesito internet para mi oficina, presupuesto 500"),
	})

	assert.True(t, result.ShouldCreateLead)
}

func TestGenerateReplyCannedOnAIFailure(t *testing.T) {
	ai := &fakeAI{err: analysis.ErrUnavailable}
	a := NewAnalyzer(ai, true, 3, logger.SetupForTesting())

	reply := a.GenerateReply(context.Background(), "", []*chat.Message{
		inboundMsg("Mi internet no funciona, necesito soporte tecnico"),
	})

	assert.NotEmpty(t, reply)
	assert.Contains(t, reply, "técnico")
}

func TestGenerateReplyUsesAI(t *testing.T) {
	ai := &fakeAI{reply: "Claro, te paso los precios en un momento."}
	a := NewAnalyzer(ai, true, 3, logger.SetupForTesting())

	reply := a.GenerateReply(context.Background(), "sos un asesor", []*chat.Message{
		inboundMsg("Cuanto sale el plan de fibra?"),
	})

	assert.Equal(t, "Claro, te paso los precios en un momento.", reply)
}
