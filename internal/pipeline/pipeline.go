package pipeline

import (
	"context"
	"encoding/json"

	"zcrm/internal/domain/chat"
	"zcrm/internal/pipeline/analyzer"
	"zcrm/internal/pipeline/responder"
	"zcrm/internal/pipeline/synthesizer"
	"zcrm/pkg/logger"
)

// Pipeline liga os estágios: mensagem nova → análise → {síntese de
// lead/ticket, resposta automática}. Implementa intake.Downstream. Falhas
// de um estágio são logadas e descartadas para aquele evento; nunca
// derrubam o processo nem atrasam outras contas.
type Pipeline struct {
	messages    chat.MessageRepository
	analyzer    *analyzer.Analyzer
	synthesizer *synthesizer.Synthesizer
	responder   *responder.Responder

	historyWindow int
	logger        logger.Logger
}

// NewPipeline cria o coordenador do pipeline.
func NewPipeline(
	messages chat.MessageRepository,
	anlz *analyzer.Analyzer,
	synth *synthesizer.Synthesizer,
	resp *responder.Responder,
	historyWindow int,
	log logger.Logger,
) *Pipeline {
	if historyWindow <= 0 {
		historyWindow = 15
	}
	return &Pipeline{
		messages:      messages,
		analyzer:      anlz,
		synthesizer:   synth,
		responder:     resp,
		historyWindow: historyWindow,
		logger:        log.WithComponent("pipeline"),
	}
}

// ProcessMessage processa uma mensagem recebida já deduplicada. A resposta
// automática é agendada independentemente do resultado da síntese.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg *chat.Message) {
	history, err := p.messages.ListRecent(ctx, msg.AccountID, msg.ChatJID, p.historyWindow)
	if err != nil || len(history) == 0 {
		history = []*chat.Message{msg}
	}

	result := p.analyzer.Analyze(ctx, history)

	if raw, err := json.Marshal(result); err == nil {
		if err := p.messages.MarkProcessed(ctx, msg.ID, raw); err != nil {
			p.logger.WithError(err).WithField("messageId", msg.MessageID).Warn().Msg("Failed to mark message processed")
		}
	}

	// Síntese e resposta correm em paralelo lógico: o agendamento da
	// resposta não espera a escrita de lead/ticket.
	p.responder.HandleInbound(ctx, msg)

	if err := p.synthesizer.Apply(ctx, msg, result); err != nil {
		p.logger.WithError(err).WithFields(map[string]interface{}{
			"accountId": msg.AccountID,
			"messageId": msg.MessageID,
		}).Error().Msg("Failed to synthesize CRM records")
	}
}
