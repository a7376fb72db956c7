package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadEscalatePriority(t *testing.T) {
	lead := &Lead{Priority: PriorityMedium}

	assert.False(t, lead.EscalatePriority(PriorityLow))
	assert.Equal(t, PriorityMedium, lead.Priority)

	assert.True(t, lead.EscalatePriority(PriorityHigh))
	assert.Equal(t, PriorityHigh, lead.Priority)

	assert.False(t, lead.EscalatePriority(PriorityMedium))
	assert.Equal(t, PriorityHigh, lead.Priority)
}

func TestLeadEscalateStatus(t *testing.T) {
	lead := &Lead{Status: LeadStatusWarm}

	assert.False(t, lead.EscalateStatus(LeadStatusNew))
	assert.Equal(t, LeadStatusWarm, lead.Status)

	assert.True(t, lead.EscalateStatus(LeadStatusHot))
	assert.Equal(t, LeadStatusHot, lead.Status)
}

func TestColdLeadRewarmsOnNewStatus(t *testing.T) {
	// Lead esfriado pela varredura volta quando uma mensagem nova qualifica.
	lead := &Lead{Status: LeadStatusCold}

	assert.True(t, lead.EscalateStatus(LeadStatusWarm))
	assert.Equal(t, LeadStatusWarm, lead.Status)
}

func TestLeadAppendNoteAccumulates(t *testing.T) {
	lead := &Lead{}

	lead.AppendNote("primeira análise")
	lead.AppendNote("segunda análise")

	assert.Contains(t, lead.Notes, "primeira análise")
	assert.Contains(t, lead.Notes, "segunda análise")
	assert.Contains(t, lead.Notes, "\n")
}

func TestUnionTags(t *testing.T) {
	merged, grew := UnionTags([]string{"internet", "fibra"}, []string{"fibra", "wifi"})
	assert.True(t, grew)
	assert.Equal(t, []string{"internet", "fibra", "wifi"}, merged)

	merged, grew = UnionTags([]string{"internet"}, []string{"internet"})
	assert.False(t, grew)
	assert.Equal(t, []string{"internet"}, merged)

	_, grew = UnionTags(nil, []string{"internet"})
	assert.True(t, grew)
}

func TestPriorityForUrgency(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityForUrgency("high"))
	assert.Equal(t, PriorityMedium, PriorityForUrgency("medium"))
	assert.Equal(t, PriorityLow, PriorityForUrgency("low"))
	assert.Equal(t, PriorityLow, PriorityForUrgency("unknown"))
}

func TestTicketClose(t *testing.T) {
	ticket := &Ticket{Status: TicketStatusOpen}
	ticket.Close()
	assert.Equal(t, TicketStatusClosed, ticket.Status)
}

func TestContactEnrichNeverOverwrites(t *testing.T) {
	contact := &Contact{Name: "Maria", Company: ""}

	changed := contact.Enrich("Otro Nombre", "Acme", []string{"internet"})

	assert.True(t, changed)
	assert.Equal(t, "Maria", contact.Name)
	assert.Equal(t, "Acme", contact.Company)
	assert.Equal(t, []string{"internet"}, contact.Tags)
}
