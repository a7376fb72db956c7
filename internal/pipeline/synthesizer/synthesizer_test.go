package synthesizer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
	"zcrm/internal/domain/crm"
	"zcrm/pkg/logger"
)

// Fakes em memória que reproduzem o contrato dos repositórios, incluindo as
// violações de constraint única.

type fakeContactRepo struct {
	byPhone map[string]*crm.Contact
	// força ErrConstraintViolation no próximo Create, simulando corrida
	raceOnCreate *crm.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{byPhone: make(map[string]*crm.Contact)}
}

func (r *fakeContactRepo) GetByPhone(ctx context.Context, phone string) (*crm.Contact, error) {
	if c, ok := r.byPhone[phone]; ok {
		return c, nil
	}
	return nil, crm.ErrContactNotFound
}

func (r *fakeContactRepo) Create(ctx context.Context, c *crm.Contact) error {
	if r.raceOnCreate != nil {
		r.byPhone[r.raceOnCreate.Phone] = r.raceOnCreate
		r.raceOnCreate = nil
		return crm.ErrConstraintViolation
	}
	if _, ok := r.byPhone[c.Phone]; ok {
		return crm.ErrConstraintViolation
	}
	r.byPhone[c.Phone] = c
	return nil
}

func (r *fakeContactRepo) Update(ctx context.Context, c *crm.Contact) error {
	r.byPhone[c.Phone] = c
	return nil
}

func (r *fakeContactRepo) List(ctx context.Context) ([]*crm.Contact, error) {
	out := make([]*crm.Contact, 0, len(r.byPhone))
	for _, c := range r.byPhone {
		out = append(out, c)
	}
	return out, nil
}

type leadKey struct {
	contactID uuid.UUID
	accountID uuid.UUID
}

type fakeLeadRepo struct {
	leads   map[leadKey]*crm.Lead
	creates int
	updates int
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[leadKey]*crm.Lead)}
}

func (r *fakeLeadRepo) GetByContactAndAccount(ctx context.Context, contactID, accountID uuid.UUID) (*crm.Lead, error) {
	if l, ok := r.leads[leadKey{contactID, accountID}]; ok {
		return l, nil
	}
	return nil, crm.ErrLeadNotFound
}

func (r *fakeLeadRepo) Create(ctx context.Context, l *crm.Lead) error {
	key := leadKey{l.ContactID, l.AccountID}
	if _, ok := r.leads[key]; ok {
		return crm.ErrConstraintViolation
	}
	r.leads[key] = l
	r.creates++
	return nil
}

func (r *fakeLeadRepo) Update(ctx context.Context, l *crm.Lead) error {
	r.leads[leadKey{l.ContactID, l.AccountID}] = l
	r.updates++
	return nil
}

func (r *fakeLeadRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*crm.Lead, error) {
	var out []*crm.Lead
	for _, l := range r.leads {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) DowngradeInactive(ctx context.Context, cutoff time.Time) (int, error) {
	count := 0
	for _, l := range r.leads {
		if l.Status != crm.LeadStatusCold && l.LastContactAt.Before(cutoff) {
			l.Status = crm.LeadStatusCold
			count++
		}
	}
	return count, nil
}

func (r *fakeLeadRepo) DowngradeStaleHot(ctx context.Context, cutoff time.Time) (int, error) {
	count := 0
	for _, l := range r.leads {
		if l.Status == crm.LeadStatusHot && l.LastContactAt.Before(cutoff) {
			l.Status = crm.LeadStatusWarm
			count++
		}
	}
	return count, nil
}

type fakeTicketRepo struct {
	tickets map[leadKey]*crm.Ticket
	creates int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[leadKey]*crm.Ticket)}
}

func (r *fakeTicketRepo) GetOpen(ctx context.Context, contactID, accountID uuid.UUID) (*crm.Ticket, error) {
	if t, ok := r.tickets[leadKey{contactID, accountID}]; ok && t.Status == crm.TicketStatusOpen {
		return t, nil
	}
	return nil, crm.ErrTicketNotFound
}

func (r *fakeTicketRepo) Create(ctx context.Context, t *crm.Ticket) error {
	key := leadKey{t.ContactID, t.AccountID}
	if existing, ok := r.tickets[key]; ok && existing.Status == crm.TicketStatusOpen {
		return crm.ErrConstraintViolation
	}
	r.tickets[key] = t
	r.creates++
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, t *crm.Ticket) error {
	r.tickets[leadKey{t.ContactID, t.AccountID}] = t
	return nil
}

func (r *fakeTicketRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*crm.Ticket, error) {
	var out []*crm.Ticket
	for _, t := range r.tickets {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestSynthesizer() (*Synthesizer, *fakeContactRepo, *fakeLeadRepo, *fakeTicketRepo) {
	contacts := newFakeContactRepo()
	leads := newFakeLeadRepo()
	tickets := newFakeTicketRepo()
	s := NewSynthesizer(contacts, leads, tickets, Options{}, logger.SetupForTesting())
	return s, contacts, leads, tickets
}

func salesResult(urgency analysis.Urgency, potential int, budget float64) *analysis.Result {
	return &analysis.Result{
		Sentiment:        analysis.SentimentPositive,
		Intent:           analysis.IntentSales,
		Urgency:          urgency,
		LeadPotential:    potential,
		ShouldCreateLead: true,
		ExtractedInfo:    analysis.ExtractedInfo{Budget: budget},
		Summary:          "interesse comercial",
		Source:           analysis.SourceFallback,
	}
}

func testMessage(accountID uuid.UUID, phone string) *chat.Message {
	return &chat.Message{
		ID:          uuid.New(),
		AccountID:   accountID,
		ChatJID:     phone + "@s.whatsapp.net",
		MessageID:   uuid.NewString(),
		Direction:   chat.DirectionInbound,
		Body:        "necesito internet",
		SenderPhone: phone,
		PushName:    "Maria",
		Timestamp:   time.Now(),
	}
}

func TestApplyCreatesContactAndLead(t *testing.T) {
	s, contacts, leads, _ := newTestSynthesizer()
	accountID := uuid.New()

	err := s.Apply(context.Background(), testMessage(accountID, "5491122334455"), salesResult(analysis.UrgencyMedium, 80, 500))
	require.NoError(t, err)

	contact, err := contacts.GetByPhone(context.Background(), "5491122334455")
	require.NoError(t, err)
	assert.Equal(t, "Maria", contact.Name)

	lead, err := leads.GetByContactAndAccount(context.Background(), contact.ID, accountID)
	require.NoError(t, err)
	assert.Equal(t, crm.LeadStatusHot, lead.Status)
	assert.Equal(t, crm.PriorityMedium, lead.Priority)
	assert.Equal(t, 500.0, lead.EstimatedValue)
	assert.NotEmpty(t, lead.Notes)
}

func TestLeadDefaultEstimatedValue(t *testing.T) {
	s, contacts, leads, _ := newTestSynthesizer()
	accountID := uuid.New()

	err := s.Apply(context.Background(), testMessage(accountID, "5491100000001"), salesResult(analysis.UrgencyLow, 65, 0))
	require.NoError(t, err)

	contact, _ := contacts.GetByPhone(context.Background(), "5491100000001")
	lead, err := leads.GetByContactAndAccount(context.Background(), contact.ID, accountID)
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultEstimatedValue), lead.EstimatedValue)
	assert.Equal(t, crm.LeadStatusNew, lead.Status)
}

func TestLeadPriorityNeverRegresses(t *testing.T) {
	s, contacts, leads, _ := newTestSynthesizer()
	accountID := uuid.New()
	msg := testMessage(accountID, "5491100000002")

	// Sequência de urgências medium, low, high, low: a prioridade só sobe.
	sequence := []analysis.Urgency{
		analysis.UrgencyMedium,
		analysis.UrgencyLow,
		analysis.UrgencyHigh,
		analysis.UrgencyLow,
	}
	expected := []crm.Priority{
		crm.PriorityMedium,
		crm.PriorityMedium,
		crm.PriorityHigh,
		crm.PriorityHigh,
	}

	for i, urgency := range sequence {
		err := s.Apply(context.Background(), msg, salesResult(urgency, 65, 0))
		require.NoError(t, err)

		contact, _ := contacts.GetByPhone(context.Background(), "5491100000002")
		lead, err := leads.GetByContactAndAccount(context.Background(), contact.ID, accountID)
		require.NoError(t, err)
		assert.Equal(t, expected[i], lead.Priority, "step %d", i)
	}

	assert.Equal(t, 1, leads.creates)
}

func TestLeadStatusOnlyEscalates(t *testing.T) {
	s, contacts, leads, _ := newTestSynthesizer()
	accountID := uuid.New()
	msg := testMessage(accountID, "5491100000003")

	require.NoError(t, s.Apply(context.Background(), msg, salesResult(analysis.UrgencyLow, 85, 0)))
	contact, _ := contacts.GetByPhone(context.Background(), "5491100000003")
	lead, _ := leads.GetByContactAndAccount(context.Background(), contact.ID, accountID)
	assert.Equal(t, crm.LeadStatusHot, lead.Status)

	// Potencial menor em mensagem posterior não rebaixa o status.
	require.NoError(t, s.Apply(context.Background(), msg, salesResult(analysis.UrgencyLow, 62, 0)))
	lead, _ = leads.GetByContactAndAccount(context.Background(), contact.ID, accountID)
	assert.Equal(t, crm.LeadStatusHot, lead.Status)
}

func TestLeadUpdateAppendsNotesAndRaisesValue(t *testing.T) {
	s, contacts, leads, _ := newTestSynthesizer()
	accountID := uuid.New()
	msg := testMessage(accountID, "5491100000004")

	require.NoError(t, s.Apply(context.Background(), msg, salesResult(analysis.UrgencyLow, 65, 300)))
	require.NoError(t, s.Apply(context.Background(), msg, salesResult(analysis.UrgencyLow, 65, 800)))
	require.NoError(t, s.Apply(context.Background(), msg, salesResult(analysis.UrgencyLow, 65, 100)))

	contact, _ := contacts.GetByPhone(context.Background(), "5491100000004")
	lead, err := leads.GetByContactAndAccount(context.Background(), contact.ID, accountID)
	require.NoError(t, err)

	// Valor estimado só sobe; notas acumulam uma linha por análise.
	assert.Equal(t, 800.0, lead.EstimatedValue)
	assert.Len(t, splitLines(lead.Notes), 3)
}

func TestContactCreateRaceRefetches(t *testing.T) {
	s, contacts, leads, _ := newTestSynthesizer()
	accountID := uuid.New()

	// Outro worker insere o contato entre o GetByPhone e o Create.
	winner := &crm.Contact{
		ID:        uuid.New(),
		Phone:     "5491100000005",
		Name:      "Concurrent",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	contacts.raceOnCreate = winner

	err := s.Apply(context.Background(), testMessage(accountID, "5491100000005"), salesResult(analysis.UrgencyLow, 65, 0))
	require.NoError(t, err)

	lead, err := leads.GetByContactAndAccount(context.Background(), winner.ID, accountID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, lead.ContactID)
}

func TestTicketSingleOpenPerContact(t *testing.T) {
	s, contacts, _, tickets := newTestSynthesizer()
	accountID := uuid.New()
	msg := testMessage(accountID, "5491100000006")

	result := &analysis.Result{
		Sentiment:          analysis.SentimentNegative,
		Intent:             analysis.IntentSupport,
		Urgency:            analysis.UrgencyMedium,
		ShouldCreateTicket: true,
		Summary:            "internet caido",
		Source:             analysis.SourceFallback,
	}

	require.NoError(t, s.Apply(context.Background(), msg, result))
	require.NoError(t, s.Apply(context.Background(), msg, result))

	assert.Equal(t, 1, tickets.creates)

	contact, _ := contacts.GetByPhone(context.Background(), "5491100000006")
	ticket, err := tickets.GetOpen(context.Background(), contact.ID, accountID)
	require.NoError(t, err)
	assert.Len(t, splitLines(ticket.Notes), 2)
}

func TestTicketPriorityEscalates(t *testing.T) {
	s, contacts, _, tickets := newTestSynthesizer()
	accountID := uuid.New()
	msg := testMessage(accountID, "5491100000007")

	low := &analysis.Result{
		Intent: analysis.IntentSupport, Sentiment: analysis.SentimentNeutral,
		Urgency: analysis.UrgencyLow, ShouldCreateTicket: true, Source: analysis.SourceFallback,
	}
	high := &analysis.Result{
		Intent: analysis.IntentSupport, Sentiment: analysis.SentimentNegative,
		Urgency: analysis.UrgencyHigh, ShouldCreateTicket: true, Source: analysis.SourceFallback,
	}

	require.NoError(t, s.Apply(context.Background(), msg, low))
	require.NoError(t, s.Apply(context.Background(), msg, high))
	require.NoError(t, s.Apply(context.Background(), msg, low))

	contact, _ := contacts.GetByPhone(context.Background(), "5491100000007")
	ticket, err := tickets.GetOpen(context.Background(), contact.ID, accountID)
	require.NoError(t, err)
	assert.Equal(t, crm.PriorityHigh, ticket.Priority)
}

func TestSweepDowngrades(t *testing.T) {
	s, _, leads, _ := newTestSynthesizer()
	accountID := uuid.New()

	stale := &crm.Lead{
		ID: uuid.New(), ContactID: uuid.New(), AccountID: accountID,
		Stage: crm.LeadStageNew, Status: crm.LeadStatusHot, Priority: crm.PriorityHigh,
		LastContactAt: time.Now().Add(-30 * 24 * time.Hour),
	}
	fresh := &crm.Lead{
		ID: uuid.New(), ContactID: uuid.New(), AccountID: accountID,
		Stage: crm.LeadStageNew, Status: crm.LeadStatusHot, Priority: crm.PriorityHigh,
		LastContactAt: time.Now(),
	}
	require.NoError(t, leads.Create(context.Background(), stale))
	require.NoError(t, leads.Create(context.Background(), fresh))

	require.NoError(t, s.Sweep(context.Background()))

	// O lead parado primeiro vira warm e, passado o corte de inatividade,
	// cold; o recente não muda.
	assert.Equal(t, crm.LeadStatusCold, stale.Status)
	assert.Equal(t, crm.LeadStatusHot, fresh.Status)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
