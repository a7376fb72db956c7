package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
	"zcrm/pkg/logger"
)

// Client fala com um serviço de chat-completions compatível com OpenAI
// para analisar conversas e gerar respostas automáticas. Qualquer desvio
// do contrato (JSON malformado, enum fora do domínio) vira
// analysis.ErrMalformedResponse para o chamador acionar o fallback.
type Client struct {
	httpClient *resty.Client
	model      string
	logger     logger.Logger
}

// Config agrupa os parâmetros de conexão com o serviço de IA.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient cria um cliente de IA com timeout explícito. Sem timeout o
// analisador poderia travar o ciclo inteiro do pipeline.
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{
		httpClient: httpClient,
		model:      cfg.Model,
		logger:     log.WithComponent("ai-client"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// rawAnalysis é o formato intermediário tolerante que o serviço devolve.
// A validação forte acontece em toResult.
type rawAnalysis struct {
	Sentiment          string  `json:"sentiment"`
	Intent             string  `json:"intent"`
	Urgency            string  `json:"urgency"`
	LeadPotential      int     `json:"leadPotential"`
	ShouldCreateLead   bool    `json:"shouldCreateLead"`
	ShouldCreateTicket bool    `json:"shouldCreateTicket"`
	Summary            string  `json:"summary"`
	ExtractedInfo      struct {
		Name     string   `json:"name"`
		Company  string   `json:"company"`
		Products []string `json:"products"`
		Budget   float64  `json:"budget"`
	} `json:"extractedInfo"`
}

const analysisSystemPrompt = `You are a CRM conversation analyst for a WhatsApp sales channel.
Analyze the conversation and answer with a single JSON object, no prose, no markdown fences.
Schema:
{
  "sentiment": "positive" | "negative" | "neutral",
  "intent": "sales" | "support" | "inquiry" | "complaint",
  "urgency": "low" | "medium" | "high",
  "leadPotential": 0-100,
  "shouldCreateLead": boolean,
  "shouldCreateTicket": boolean,
  "summary": "one sentence",
  "extractedInfo": {"name": "", "company": "", "products": [], "budget": 0}
}`

// AnalyzeConversation envia o histórico recente ao serviço e devolve o
// resultado estruturado. Erros de transporte viram ErrUnavailable; uma
// resposta fora do contrato vira ErrMalformedResponse.
func (c *Client) AnalyzeConversation(ctx context.Context, messages []*chat.Message) (*analysis.Result, error) {
	req := completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: renderTranscript(messages)},
		},
		Temperature: 0.1,
		MaxTokens:   512,
	}

	content, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		c.logger.WithError(err).Debug().Msg("AI returned non-JSON analysis")
		return nil, fmt.Errorf("%w: %v", analysis.ErrMalformedResponse, err)
	}

	return toResult(raw)
}

// GenerateReply gera o texto de uma resposta automática a partir do prompt
// do agente configurado na conta e do histórico recente.
func (c *Client) GenerateReply(ctx context.Context, agentPrompt string, messages []*chat.Message) (string, error) {
	if agentPrompt == "" {
		agentPrompt = "You are a polite sales assistant. Reply briefly in the customer's language."
	}

	req := completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: agentPrompt},
			{Role: "user", Content: renderTranscript(messages)},
		},
		Temperature: 0.7,
		MaxTokens:   256,
	}

	content, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(content)
	if reply == "" {
		return "", analysis.ErrMalformedResponse
	}
	return reply, nil
}

// complete executa a chamada HTTP e extrai o conteúdo da primeira escolha.
func (c *Client) complete(ctx context.Context, req completionRequest) (string, error) {
	var result completionResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		c.logger.WithError(err).Warn().Msg("AI service unreachable")
		return "", fmt.Errorf("%w: %v", analysis.ErrUnavailable, err)
	}

	if resp.IsError() {
		c.logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode(),
			"body":   truncate(resp.String(), 200),
		}).Warn().Msg("AI service returned error status")
		return "", fmt.Errorf("%w: status %d", analysis.ErrUnavailable, resp.StatusCode())
	}

	if len(result.Choices) == 0 {
		return "", analysis.ErrMalformedResponse
	}
	return result.Choices[0].Message.Content, nil
}

// toResult valida o payload bruto contra os enums do domínio.
func toResult(raw rawAnalysis) (*analysis.Result, error) {
	result := &analysis.Result{
		Sentiment:          analysis.Sentiment(raw.Sentiment),
		Intent:             analysis.Intent(raw.Intent),
		Urgency:            analysis.Urgency(raw.Urgency),
		LeadPotential:      analysis.Clamp(raw.LeadPotential),
		ShouldCreateLead:   raw.ShouldCreateLead,
		ShouldCreateTicket: raw.ShouldCreateTicket,
		Summary:            strings.TrimSpace(raw.Summary),
		Source:             analysis.SourceAI,
	}
	result.ExtractedInfo = analysis.ExtractedInfo{
		Name:     strings.TrimSpace(raw.ExtractedInfo.Name),
		Company:  strings.TrimSpace(raw.ExtractedInfo.Company),
		Products: raw.ExtractedInfo.Products,
		Budget:   raw.ExtractedInfo.Budget,
	}

	if !analysis.ValidSentiment(result.Sentiment) {
		return nil, fmt.Errorf("%w: sentiment %q", analysis.ErrMalformedResponse, raw.Sentiment)
	}
	if !analysis.ValidIntent(result.Intent) {
		return nil, fmt.Errorf("%w: intent %q", analysis.ErrMalformedResponse, raw.Intent)
	}
	if !analysis.ValidUrgency(result.Urgency) {
		return nil, fmt.Errorf("%w: urgency %q", analysis.ErrMalformedResponse, raw.Urgency)
	}

	return result, nil
}

// renderTranscript monta o texto da conversa no formato "cliente/agente".
func renderTranscript(messages []*chat.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		role := "customer"
		if msg.Direction == chat.DirectionOutbound {
			role = "agent"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(msg.Body)
		sb.WriteString("\n")
	}
	return sb.String()
}

// stripFences remove cercas de markdown que alguns modelos insistem em
// colocar mesmo com instrução contrária.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
	}
	return strings.TrimSpace(content)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
