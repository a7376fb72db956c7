package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/crm"
	"zcrm/pkg/logger"
)

// DefaultEstimatedValue é o valor atribuído a leads sem orçamento declarado.
const DefaultEstimatedValue = 100

// Synthesizer converte resultados de análise em mutações idempotentes de
// contatos, leads e tickets. Toda corrida em constraint única é tratada
// como confirmação de processamento anterior, nunca como falha.
type Synthesizer struct {
	contacts crm.ContactRepository
	leads    crm.LeadRepository
	tickets  crm.TicketRepository

	coldAfter    time.Duration
	hotDecay     time.Duration
	defaultValue float64

	logger logger.Logger
}

// Options configura os limites da varredura de inatividade.
type Options struct {
	// Dias sem contato até um lead virar cold
	ColdAfterDays int
	// Dias sem follow-up até um lead hot virar warm
	HotDecayDays int
}

// NewSynthesizer cria um sintetizador de leads e tickets.
func NewSynthesizer(
	contacts crm.ContactRepository,
	leads crm.LeadRepository,
	tickets crm.TicketRepository,
	opts Options,
	log logger.Logger,
) *Synthesizer {
	if opts.ColdAfterDays <= 0 {
		opts.ColdAfterDays = 14
	}
	if opts.HotDecayDays <= 0 {
		opts.HotDecayDays = 3
	}
	return &Synthesizer{
		contacts:     contacts,
		leads:        leads,
		tickets:      tickets,
		coldAfter:    time.Duration(opts.ColdAfterDays) * 24 * time.Hour,
		hotDecay:     time.Duration(opts.HotDecayDays) * 24 * time.Hour,
		defaultValue: DefaultEstimatedValue,
		logger:       log.WithComponent("synthesizer"),
	}
}

// Apply materializa uma análise: garante o contato, cria ou atualiza o
// lead quando qualificado e o ticket quando a conversa pede suporte.
func (s *Synthesizer) Apply(ctx context.Context, msg *chat.Message, result *analysis.Result) error {
	contact, err := s.UpsertContact(ctx, msg.SenderPhone, msg.PushName, result)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}

	if result.ShouldCreateLead {
		if err := s.UpsertLead(ctx, contact, msg.AccountID, result); err != nil {
			return fmt.Errorf("upsert lead: %w", err)
		}
	}

	if result.ShouldCreateTicket {
		if err := s.UpsertTicket(ctx, contact, msg.AccountID, result); err != nil {
			return fmt.Errorf("upsert ticket: %w", err)
		}
	}

	return nil
}

// UpsertContact busca o contato pelo telefone normalizado, criando na
// primeira mensagem e enriquecendo com fatos novos da análise.
func (s *Synthesizer) UpsertContact(ctx context.Context, phone, pushName string, result *analysis.Result) (*crm.Contact, error) {
	contact, err := s.contacts.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, crm.ErrContactNotFound) {
		return nil, err
	}

	if contact == nil {
		contact = &crm.Contact{
			ID:        uuid.New(),
			Phone:     phone,
			Name:      firstNonEmpty(result.ExtractedInfo.Name, pushName),
			Company:   result.ExtractedInfo.Company,
			Tags:      result.ExtractedInfo.Products,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		err := s.contacts.Create(ctx, contact)
		if err == nil {
			s.logger.WithField("phone", phone).Info().Msg("Contact created")
			return contact, nil
		}
		if !errors.Is(err, crm.ErrConstraintViolation) {
			return nil, err
		}
		// Outro worker criou primeiro; rebuscar e seguir enriquecendo.
		contact, err = s.contacts.GetByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
	}

	name := firstNonEmpty(result.ExtractedInfo.Name, pushName)
	if contact.Enrich(name, result.ExtractedInfo.Company, result.ExtractedInfo.Products) {
		if err := s.contacts.Update(ctx, contact); err != nil {
			return nil, err
		}
	}

	return contact, nil
}

// UpsertLead cria ou atualiza o lead único de (contato, conta). Atualização
// acrescenta nota com timestamp, une tags e só escala prioridade e status.
func (s *Synthesizer) UpsertLead(ctx context.Context, contact *crm.Contact, accountID uuid.UUID, result *analysis.Result) error {
	lead, err := s.leads.GetByContactAndAccount(ctx, contact.ID, accountID)
	if err != nil && !errors.Is(err, crm.ErrLeadNotFound) {
		return err
	}

	if lead == nil {
		lead = s.newLead(contact, accountID, result)
		err := s.leads.Create(ctx, lead)
		if err == nil {
			s.logger.WithFields(map[string]interface{}{
				"contactId": contact.ID,
				"accountId": accountID,
				"priority":  lead.Priority,
			}).Info().Msg("Lead created")
			return nil
		}
		if !errors.Is(err, crm.ErrConstraintViolation) {
			return err
		}
		// Corrida na chave (contato, conta): o lead já existe, atualizar.
		lead, err = s.leads.GetByContactAndAccount(ctx, contact.ID, accountID)
		if err != nil {
			return err
		}
	}

	lead.AppendNote(noteFor(result))
	lead.MergeTags(result.ExtractedInfo.Products)
	lead.EscalatePriority(crm.PriorityForUrgency(string(result.Urgency)))
	lead.EscalateStatus(statusForPotential(result.LeadPotential))
	if result.ExtractedInfo.Budget > lead.EstimatedValue {
		lead.EstimatedValue = result.ExtractedInfo.Budget
	}
	lead.TouchContact()

	return s.leads.Update(ctx, lead)
}

// UpsertTicket garante no máximo um ticket aberto por (contato, conta).
// Mensagem urgente nova acrescenta ao aberto em vez de duplicar.
func (s *Synthesizer) UpsertTicket(ctx context.Context, contact *crm.Contact, accountID uuid.UUID, result *analysis.Result) error {
	ticket, err := s.tickets.GetOpen(ctx, contact.ID, accountID)
	if err != nil && !errors.Is(err, crm.ErrTicketNotFound) {
		return err
	}

	if ticket == nil {
		ticket = &crm.Ticket{
			ID:        uuid.New(),
			ContactID: contact.ID,
			AccountID: accountID,
			Status:    crm.TicketStatusOpen,
			Priority:  crm.PriorityForUrgency(string(result.Urgency)),
			Subject:   result.Summary,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		ticket.AppendNote(noteFor(result))

		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			s.logger.WithFields(map[string]interface{}{
				"contactId": contact.ID,
				"accountId": accountID,
			}).Info().Msg("Ticket created")
			return nil
		}
		if !errors.Is(err, crm.ErrConstraintViolation) {
			return err
		}
		// O índice parcial de ticket aberto rejeitou: outro worker abriu
		// primeiro, acrescentar ao dele.
		ticket, err = s.tickets.GetOpen(ctx, contact.ID, accountID)
		if err != nil {
			return err
		}
	}

	ticket.AppendNote(noteFor(result))
	ticket.EscalatePriority(crm.PriorityForUrgency(string(result.Urgency)))

	return s.tickets.Update(ctx, ticket)
}

// Sweep executa a varredura de inatividade. É o único caminho autorizado a
// regredir status de lead.
func (s *Synthesizer) Sweep(ctx context.Context) error {
	now := time.Now()

	downgraded, err := s.leads.DowngradeStaleHot(ctx, now.Add(-s.hotDecay))
	if err != nil {
		return fmt.Errorf("downgrade stale hot leads: %w", err)
	}
	if downgraded > 0 {
		s.logger.WithField("count", downgraded).Info().Msg("Hot leads downgraded to warm")
	}

	cooled, err := s.leads.DowngradeInactive(ctx, now.Add(-s.coldAfter))
	if err != nil {
		return fmt.Errorf("downgrade inactive leads: %w", err)
	}
	if cooled > 0 {
		s.logger.WithField("count", cooled).Info().Msg("Inactive leads downgraded to cold")
	}

	return nil
}

func (s *Synthesizer) newLead(contact *crm.Contact, accountID uuid.UUID, result *analysis.Result) *crm.Lead {
	value := result.ExtractedInfo.Budget
	if value <= 0 {
		value = s.defaultValue
	}

	lead := &crm.Lead{
		ID:             uuid.New(),
		ContactID:      contact.ID,
		AccountID:      accountID,
		Stage:          crm.LeadStageNew,
		Status:         statusForPotential(result.LeadPotential),
		Priority:       crm.PriorityForUrgency(string(result.Urgency)),
		EstimatedValue: value,
		Tags:           result.ExtractedInfo.Products,
		LastContactAt:  time.Now(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	lead.AppendNote(noteFor(result))
	return lead
}

// statusForPotential mapeia potencial em temperatura inicial do lead.
func statusForPotential(potential int) crm.LeadStatus {
	switch {
	case potential >= 80:
		return crm.LeadStatusHot
	case potential >= 70:
		return crm.LeadStatusWarm
	default:
		return crm.LeadStatusNew
	}
}

// noteFor resume a análise no formato das notas apenas-acréscimo.
func noteFor(result *analysis.Result) string {
	note := fmt.Sprintf("%s/%s urgência %s, potencial %d",
		result.Intent, result.Sentiment, result.Urgency, result.LeadPotential)
	if result.Summary != "" {
		note += ": " + result.Summary
	}
	return note
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
