package analyzer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
)

func inboundMsg(body string) *chat.Message {
	return &chat.Message{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		ChatJID:   "5511999999999@s.whatsapp.net",
		MessageID: uuid.NewString(),
		Direction: chat.DirectionInbound,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func outboundMsg(body string) *chat.Message {
	m := inboundMsg(body)
	m.Direction = chat.DirectionOutbound
	return m
}

func TestFallbackAnalyzeSalesWithBudget(t *testing.T) {
	result := FallbackAnalyze([]*chat.Message{
		inboundMsg("Necesito internet para mi oficina, presupuesto 500"),
	})

	assert.Equal(t, analysis.IntentSales, result.Intent)
	assert.Equal(t, 80, result.LeadPotential)
	assert.Equal(t, analysis.UrgencyMedium, result.Urgency)
	assert.Equal(t, analysis.SentimentPositive, result.Sentiment)
	assert.True(t, result.ShouldCreateLead)
	assert.False(t, result.ShouldCreateTicket)
	assert.Equal(t, analysis.SourceFallback, result.Source)
	assert.InDelta(t, 500.0, result.ExtractedInfo.Budget, 0.01)
	assert.Contains(t, result.ExtractedInfo.Products, "internet")
}

func TestFallbackAnalyzeGreetingOnly(t *testing.T) {
	result := FallbackAnalyze([]*chat.Message{inboundMsg("Hola!")})

	assert.False(t, result.ShouldCreateLead)
	assert.False(t, result.ShouldCreateTicket)
	assert.Equal(t, analysis.UrgencyLow, result.Urgency)
	assert.Less(t, result.LeadPotential, LeadPotentialThreshold)
}

func TestFallbackAnalyzeSupportOpensTicket(t *testing.T) {
	result := FallbackAnalyze([]*chat.Message{
		inboundMsg("Mi internet no funciona, necesito soporte tecnico"),
	})

	assert.Equal(t, analysis.IntentSupport, result.Intent)
	assert.True(t, result.ShouldCreateTicket)
}

func TestFallbackAnalyzeComplaintIsNegativeAndUrgent(t *testing.T) {
	result := FallbackAnalyze([]*chat.Message{
		inboundMsg("Quiero hacer un reclamo, pesimo servicio, voy a cancelar"),
	})

	assert.Equal(t, analysis.IntentComplaint, result.Intent)
	assert.Equal(t, analysis.SentimentNegative, result.Sentiment)
	assert.Equal(t, analysis.UrgencyHigh, result.Urgency)
	assert.True(t, result.ShouldCreateTicket)
}

func TestFallbackAnalyzeUrgencyKeyword(t *testing.T) {
	result := FallbackAnalyze([]*chat.Message{
		inboundMsg("Es urgente, no tengo internet en el negocio"),
	})

	assert.Equal(t, analysis.UrgencyHigh, result.Urgency)
	assert.True(t, result.ShouldCreateTicket)
}

func TestFallbackAnalyzeIgnoresOutbound(t *testing.T) {
	// Só mensagens recebidas pontuam; o eco das nossas respostas com
	// palavras de venda não pode inflar o potencial.
	withEcho := FallbackAnalyze([]*chat.Message{
		inboundMsg("Hola"),
		outboundMsg("Tenemos planes de internet y fibra, precios con promoción"),
	})
	onlyGreeting := FallbackAnalyze([]*chat.Message{inboundMsg("Hola")})

	assert.Equal(t, onlyGreeting.LeadPotential, withEcho.LeadPotential)
	assert.False(t, withEcho.ShouldCreateLead)
}

func TestFallbackAnalyzeExtractsNameAndCompany(t *testing.T) {
	result := FallbackAnalyze([]*chat.Message{
		inboundMsg("Hola, me llamo Maria Lopez, mi empresa Acme necesita internet"),
	})

	assert.Equal(t, "maria lopez", result.ExtractedInfo.Name)
	require.NotEmpty(t, result.ExtractedInfo.Company)
}

func TestBudgetExtraction(t *testing.T) {
	tests := []struct {
		body   string
		budget float64
	}{
		{"presupuesto 500", 500},
		{"presupuesto de 1200", 1200},
		{"orçamento 300,50", 300.50},
		{"puedo pagar $ 250", 250},
		{"sin numeros", 0},
	}

	for _, tt := range tests {
		result := FallbackAnalyze([]*chat.Message{inboundMsg(tt.body)})
		assert.InDelta(t, tt.budget, result.ExtractedInfo.Budget, 0.01, "body: %s", tt.body)
	}
}

func TestIsBareGreeting(t *testing.T) {
	assert.True(t, IsBareGreeting("Hola"))
	assert.True(t, IsBareGreeting("  hola!  "))
	assert.True(t, IsBareGreeting("Buenos días"))
	assert.True(t, IsBareGreeting("bom dia"))
	assert.True(t, IsBareGreeting(""))
	assert.False(t, IsBareGreeting("Hola, necesito internet"))
	assert.False(t, IsBareGreeting("necesito ayuda"))
}

func TestDominantIntentTieBreak(t *testing.T) {
	// Empate resolve para o intent mais acionável
	assert.Equal(t, analysis.IntentComplaint, dominantIntent(2, 2, 2, 2))
	assert.Equal(t, analysis.IntentSupport, dominantIntent(1, 2, 0, 2))
	assert.Equal(t, analysis.IntentSales, dominantIntent(2, 1, 0, 2))
	assert.Equal(t, analysis.IntentInquiry, dominantIntent(0, 0, 0, 0))
}
