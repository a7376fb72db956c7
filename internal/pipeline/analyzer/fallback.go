package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"zcrm/internal/domain/analysis"
	"zcrm/internal/domain/chat"
)

// Fallback determinístico por palavras-chave. Este caminho é puro e total:
// nunca falha e nunca chama serviços externos. As listas cobrem espanhol e
// português, os idiomas dominantes do canal.

var salesKeywords = []string{
	"necesito", "preciso", "quiero", "contratar", "comprar", "precio",
	"precios", "cotizacion", "cotización", "presupuesto", "orçamento",
	"promocion", "promoción", "plan", "planes", "internet", "fibra",
	"servicio", "instalar", "instalacion", "instalación", "contratação",
}

var supportKeywords = []string{
	"no funciona", "problema", "falla", "error", "ayuda", "soporte",
	"suporte", "lento", "caido", "caído", "sin señal", "sin servicio",
	"intermitente", "cortes", "reiniciar", "tecnico", "técnico",
}

var complaintKeywords = []string{
	"queja", "reclamo", "reclamação", "pesimo", "pésimo", "terrible",
	"molesto", "cancelar", "devolucion", "devolución", "estafa",
	"nunca responden", "mal servicio",
}

var inquiryKeywords = []string{
	"consulta", "informacion", "información", "pregunta", "horario",
	"donde", "dónde", "como", "cómo", "cuando", "cuándo", "cobertura",
}

var urgencyKeywords = []string{
	"urgente", "urgencia", "emergencia", "ahora", "inmediato", "ya mismo",
	"hoy mismo", "cuanto antes", "lo antes posible",
}

var businessKeywords = []string{
	"oficina", "empresa", "negocio", "local", "sucursal", "comercio",
	"escritorio", "escritório", "consultorio", "tienda",
}

var productKeywords = []string{
	"internet", "fibra", "wifi", "plan", "telefonia", "telefonía", "tv",
	"camaras", "cámaras", "hosting",
}

var greetings = map[string]struct{}{
	"hola": {}, "buenas": {}, "buenos dias": {}, "buenos días": {},
	"buenas tardes": {}, "buenas noches": {}, "oi": {}, "olá": {},
	"ola": {}, "bom dia": {}, "boa tarde": {}, "boa noite": {},
	"hello": {}, "hi": {}, "hey": {},
}

var (
	budgetRe  = regexp.MustCompile(`(?i)(?:presupuesto|orçamento|budget)\D{0,10}(\d+(?:[.,]\d+)?)`)
	moneyRe   = regexp.MustCompile(`(?:\$|usd|r\$)\s*(\d+(?:[.,]\d+)?)`)
	nameRe    = regexp.MustCompile(`(?i)(?:me llamo|mi nombre es|soy|meu nome é|me chamo)\s+([\p{L}]+(?:\s+[\p{L}]+)?)`)
	companyRe = regexp.MustCompile(`(?i)(?:mi empresa|nuestra empresa|la empresa|minha empresa|a empresa)(?:\s+se\s+llama|\s+se\s+chama)?\s+([\p{L}\d]+(?:\s+[\p{L}\d]+)?)`)
)

// FallbackAnalyze classifica a conversa por pontuação de palavras-chave.
// Recebe a janela de mensagens em ordem cronológica; apenas as mensagens
// recebidas contam para a pontuação.
func FallbackAnalyze(messages []*chat.Message) *analysis.Result {
	var inbound []string
	for _, msg := range messages {
		if msg.IsInbound() {
			inbound = append(inbound, msg.Body)
		}
	}
	text := normalize(strings.Join(inbound, "\n"))

	salesHits := countMatches(text, salesKeywords)
	supportHits := countMatches(text, supportKeywords)
	complaintHits := countMatches(text, complaintKeywords)
	inquiryHits := countMatches(text, inquiryKeywords)
	urgencyHits := countMatches(text, urgencyKeywords)
	businessHits := countMatches(text, businessKeywords)

	intent := dominantIntent(salesHits, supportHits, complaintHits, inquiryHits)

	info := extractInfo(text)
	hasBudget := info.Budget > 0
	hasBusiness := businessHits > 0

	urgency := analysis.UrgencyLow
	switch {
	case urgencyHits > 0 || complaintHits >= 2:
		urgency = analysis.UrgencyHigh
	case hasBudget || hasBusiness || intent == analysis.IntentComplaint:
		urgency = analysis.UrgencyMedium
	}

	potential := leadPotential(intent, salesHits, hasBusiness, hasBudget)

	return &analysis.Result{
		Sentiment:          sentimentFor(intent, complaintHits, supportHits),
		Intent:             intent,
		Urgency:            urgency,
		LeadPotential:      potential,
		ShouldCreateLead:   potential >= LeadPotentialThreshold,
		ShouldCreateTicket: intent == analysis.IntentSupport || intent == analysis.IntentComplaint || urgency == analysis.UrgencyHigh,
		ExtractedInfo:      info,
		Summary:            summaryFor(intent, len(inbound)),
		Source:             analysis.SourceFallback,
	}
}

// leadPotential combina quantidade de sinais de venda com heurística de
// contexto comercial. Três sinais de venda + contexto de negócio +
// orçamento declarado chegam a 80.
func leadPotential(intent analysis.Intent, salesHits int, hasBusiness, hasBudget bool) int {
	score := 0
	if intent == analysis.IntentSales {
		score += 20
	}

	kw := salesHits * 10
	if kw > 30 {
		kw = 30
	}
	score += kw

	if hasBusiness {
		score += 15
	}
	if hasBudget {
		score += 15
	}

	return analysis.Clamp(score)
}

// IsBareGreeting indica se o corpo é apenas uma saudação sem conteúdo.
func IsBareGreeting(body string) bool {
	norm := strings.Trim(normalize(body), " !?.,")
	if norm == "" {
		return true
	}
	_, ok := greetings[norm]
	return ok
}

func dominantIntent(sales, support, complaint, inquiry int) analysis.Intent {
	// Empates resolvem a favor do intent mais acionável: reclamação >
	// suporte > venda > consulta.
	best := analysis.IntentInquiry
	bestHits := inquiry
	if sales > 0 && sales >= bestHits {
		best, bestHits = analysis.IntentSales, sales
	}
	if support > 0 && support >= bestHits {
		best, bestHits = analysis.IntentSupport, support
	}
	if complaint > 0 && complaint >= bestHits {
		best = analysis.IntentComplaint
	}
	return best
}

func sentimentFor(intent analysis.Intent, complaintHits, supportHits int) analysis.Sentiment {
	switch {
	case complaintHits > 0:
		return analysis.SentimentNegative
	case intent == analysis.IntentSupport && supportHits > 1:
		return analysis.SentimentNegative
	case intent == analysis.IntentSales:
		return analysis.SentimentPositive
	default:
		return analysis.SentimentNeutral
	}
}

func extractInfo(text string) analysis.ExtractedInfo {
	info := analysis.ExtractedInfo{}

	if m := budgetRe.FindStringSubmatch(text); len(m) > 1 {
		info.Budget = parseAmount(m[1])
	} else if m := moneyRe.FindStringSubmatch(text); len(m) > 1 {
		info.Budget = parseAmount(m[1])
	}

	if m := nameRe.FindStringSubmatch(text); len(m) > 1 {
		info.Name = strings.TrimSpace(m[1])
	}
	if m := companyRe.FindStringSubmatch(text); len(m) > 1 {
		info.Company = strings.TrimSpace(m[1])
	}

	for _, product := range productKeywords {
		if strings.Contains(text, product) {
			info.Products = append(info.Products, product)
		}
	}

	return info
}

func parseAmount(raw string) float64 {
	raw = strings.ReplaceAll(raw, ",", ".")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func summaryFor(intent analysis.Intent, inboundCount int) string {
	switch intent {
	case analysis.IntentSales:
		return "Conversa com interesse comercial detectado por palavras-chave"
	case analysis.IntentSupport:
		return "Conversa com pedido de suporte detectado por palavras-chave"
	case analysis.IntentComplaint:
		return "Conversa com reclamação detectada por palavras-chave"
	default:
		if inboundCount <= 1 {
			return "Primeiro contato sem sinal comercial claro"
		}
		return "Conversa informativa sem sinal comercial claro"
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
