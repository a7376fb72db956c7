package analysis

// Sentiment representa o tom emocional de uma conversa
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Intent representa a intenção detectada na conversa
type Intent string

const (
	IntentSales     Intent = "sales"
	IntentSupport   Intent = "support"
	IntentInquiry   Intent = "inquiry"
	IntentComplaint Intent = "complaint"
)

// Urgency representa o nível de urgência detectado
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Source identifica qual caminho produziu o resultado
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// ExtractedInfo agrega fatos estruturados extraídos da conversa
type ExtractedInfo struct {
	Name     string   `json:"name,omitempty"`
	Company  string   `json:"company,omitempty"`
	Products []string `json:"products,omitempty"`
	Budget   float64  `json:"budget,omitempty"`
}

// Result é a saída do analisador de conversas
type Result struct {
	Sentiment          Sentiment     `json:"sentiment"`
	Intent             Intent        `json:"intent"`
	Urgency            Urgency       `json:"urgency"`
	LeadPotential      int           `json:"leadPotential"`
	ShouldCreateLead   bool          `json:"shouldCreateLead"`
	ShouldCreateTicket bool          `json:"shouldCreateTicket"`
	ExtractedInfo      ExtractedInfo `json:"extractedInfo"`
	Summary            string        `json:"summary,omitempty"`
	Source             Source        `json:"source"`
}

// ValidSentiment verifica se o valor pertence ao enum
func ValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// ValidIntent verifica se o valor pertence ao enum
func ValidIntent(i Intent) bool {
	switch i {
	case IntentSales, IntentSupport, IntentInquiry, IntentComplaint:
		return true
	}
	return false
}

// ValidUrgency verifica se o valor pertence ao enum
func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Clamp normaliza o leadPotential para o intervalo [0, 100]
func Clamp(potential int) int {
	if potential < 0 {
		return 0
	}
	if potential > 100 {
		return 100
	}
	return potential
}
