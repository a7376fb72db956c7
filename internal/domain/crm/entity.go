package crm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LeadStatus representa a temperatura comercial de um lead
type LeadStatus string

const (
	LeadStatusNew  LeadStatus = "new"
	LeadStatusWarm LeadStatus = "warm"
	LeadStatusHot  LeadStatus = "hot"
	LeadStatusCold LeadStatus = "cold"
)

// LeadStage representa a etapa do funil de vendas
type LeadStage string

const (
	LeadStageNew         LeadStage = "new"
	LeadStageContacted   LeadStage = "contacted"
	LeadStageNegotiating LeadStage = "negotiating"
	LeadStageWon         LeadStage = "won"
	LeadStageLost        LeadStage = "lost"
)

// Priority representa a prioridade de um lead ou ticket
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TicketStatus representa o estado de um ticket de suporte
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// priorityRank ordena prioridades para escalonamento monotônico
var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
}

// statusRank ordena status de lead para escalonamento monotônico.
// "cold" fica fora do ranking: só a varredura de inatividade chega lá.
var statusRank = map[LeadStatus]int{
	LeadStatusNew:  0,
	LeadStatusWarm: 1,
	LeadStatusHot:  2,
}

// Contact representa uma pessoa identificada pelo telefone normalizado.
// Contatos nunca são removidos; apenas enriquecidos.
type Contact struct {
	bun.BaseModel `bun:"table:zcrm_contacts,alias:ct"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Phone     string    `bun:"phone,type:varchar(20),notnull,unique" json:"phone"`
	Name      string    `bun:"name,type:varchar(255)" json:"name,omitempty"`
	Company   string    `bun:"company,type:varchar(255)" json:"company,omitempty"`
	Tags      []string  `bun:"tags,array" json:"tags,omitempty"`
	CreatedAt time.Time `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updatedAt,type:timestamptz,notnull" json:"updatedAt"`
}

// Enrich preenche campos vazios com fatos novos da análise, sem sobrescrever
// dados já conhecidos
func (c *Contact) Enrich(name, company string, tags []string) bool {
	changed := false
	if c.Name == "" && name != "" {
		c.Name = name
		changed = true
	}
	if c.Company == "" && company != "" {
		c.Company = company
		changed = true
	}
	if merged, grew := UnionTags(c.Tags, tags); grew {
		c.Tags = merged
		changed = true
	}
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}

// Lead representa uma oportunidade de venda, única por (contato, conta)
type Lead struct {
	bun.BaseModel `bun:"table:zcrm_leads,alias:l"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	ContactID      uuid.UUID  `bun:"contactId,type:uuid,notnull" json:"contactId"`
	AccountID      uuid.UUID  `bun:"accountId,type:uuid,notnull" json:"accountId"`
	Stage          LeadStage  `bun:"stage,type:varchar(20),notnull" json:"stage"`
	Status         LeadStatus `bun:"status,type:varchar(10),notnull" json:"status"`
	Priority       Priority   `bun:"priority,type:varchar(10),notnull" json:"priority"`
	EstimatedValue float64    `bun:"estimatedValue,type:numeric" json:"estimatedValue"`
	Tags           []string   `bun:"tags,array" json:"tags,omitempty"`
	Notes          string     `bun:"notes,type:text" json:"notes,omitempty"`
	LastContactAt  time.Time  `bun:"lastContactAt,type:timestamptz,notnull" json:"lastContactAt"`
	CreatedAt      time.Time  `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
	UpdatedAt      time.Time  `bun:"updatedAt,type:timestamptz,notnull" json:"updatedAt"`
}

// AppendNote acrescenta uma nota com timestamp ao log apenas-acréscimo do lead
func (l *Lead) AppendNote(note string) {
	entry := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04"), note)
	if l.Notes == "" {
		l.Notes = entry
	} else {
		l.Notes = l.Notes + "\n" + entry
	}
	l.UpdatedAt = time.Now()
}

// EscalatePriority eleva a prioridade se a nova for maior que a armazenada.
// Nunca rebaixa por causa de uma única mensagem.
func (l *Lead) EscalatePriority(p Priority) bool {
	if priorityRank[p] > priorityRank[l.Priority] {
		l.Priority = p
		l.UpdatedAt = time.Now()
		return true
	}
	return false
}

// EscalateStatus eleva o status se o novo for maior que o armazenado.
// Regressões (hot → new, etc.) só acontecem pela varredura de inatividade.
func (l *Lead) EscalateStatus(s LeadStatus) bool {
	newRank, ok := statusRank[s]
	if !ok {
		return false
	}
	curRank, ok := statusRank[l.Status]
	if !ok {
		// Lead "cold" reaquecido por mensagem nova volta ao status proposto
		l.Status = s
		l.UpdatedAt = time.Now()
		return true
	}
	if newRank > curRank {
		l.Status = s
		l.UpdatedAt = time.Now()
		return true
	}
	return false
}

// MergeTags incorpora tags novas ao lead
func (l *Lead) MergeTags(tags []string) bool {
	merged, grew := UnionTags(l.Tags, tags)
	if grew {
		l.Tags = merged
		l.UpdatedAt = time.Now()
	}
	return grew
}

// TouchContact registra contato recente (reseta o relógio da varredura)
func (l *Lead) TouchContact() {
	l.LastContactAt = time.Now()
	l.UpdatedAt = l.LastContactAt
}

// Ticket representa um registro de suporte/urgência. No máximo um ticket
// aberto por (contato, conta); mensagens novas acrescentam ao aberto.
type Ticket struct {
	bun.BaseModel `bun:"table:zcrm_tickets,alias:t"`

	ID        uuid.UUID    `bun:"id,pk,type:uuid" json:"id"`
	ContactID uuid.UUID    `bun:"contactId,type:uuid,notnull" json:"contactId"`
	AccountID uuid.UUID    `bun:"accountId,type:uuid,notnull" json:"accountId"`
	Status    TicketStatus `bun:"status,type:varchar(10),notnull" json:"status"`
	Priority  Priority     `bun:"priority,type:varchar(10),notnull" json:"priority"`
	Subject   string       `bun:"subject,type:varchar(255)" json:"subject,omitempty"`
	Notes     string       `bun:"notes,type:text" json:"notes,omitempty"`
	CreatedAt time.Time    `bun:"createdAt,type:timestamptz,notnull" json:"createdAt"`
	UpdatedAt time.Time    `bun:"updatedAt,type:timestamptz,notnull" json:"updatedAt"`
}

// AppendNote acrescenta uma nota com timestamp ao ticket
func (t *Ticket) AppendNote(note string) {
	entry := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04"), note)
	if t.Notes == "" {
		t.Notes = entry
	} else {
		t.Notes = t.Notes + "\n" + entry
	}
	t.UpdatedAt = time.Now()
}

// EscalatePriority eleva a prioridade do ticket, nunca rebaixa
func (t *Ticket) EscalatePriority(p Priority) bool {
	if priorityRank[p] > priorityRank[t.Priority] {
		t.Priority = p
		t.UpdatedAt = time.Now()
		return true
	}
	return false
}

// Close fecha o ticket, liberando o índice parcial de ticket aberto
func (t *Ticket) Close() {
	t.Status = TicketStatusClosed
	t.UpdatedAt = time.Now()
}

// PriorityForUrgency mapeia urgência da análise para prioridade do CRM
func PriorityForUrgency(urgency string) Priority {
	switch urgency {
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// UnionTags une dois conjuntos de tags preservando a ordem do primeiro.
// Retorna o conjunto resultante e se houve crescimento.
func UnionTags(existing, incoming []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t] = struct{}{}
	}
	merged := existing
	grew := false
	for _, t := range incoming {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			merged = append(merged, t)
			grew = true
		}
	}
	return merged, grew
}
