package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrLeadNotFound    = errors.New("lead not found")
	ErrLeadNotPending  = errors.New("lead is not pending approval")
	ErrNoLanguageModel = errors.New("no language model configured")
)

const leadScoringPrompt = `Eres un experto en CRM y marketing para restaurantes peruanos.
Analiza los feedbacks e identifica clientes con potencial de fidelización o retorno.

Categorías de lead:
- "alto_valor": gastó bastante dinero y quedó satisfecho (potencial VIP)
- "retencion": tuvo mala experiencia pero es recuperable con atención personalizada
- "recurrente": su feedback indica que definitivamente volverá
- "referidor": recomienda el lugar o tiene perfil de influencer social

Solo incluye clientes con score >= 6.

Devuelve ÚNICAMENTE un JSON válido (sin markdown) con este formato:
{
  "leads": [
    {
      "id_cliente": "<id>",
      "score": <entero 1-10>,
      "categoria": "<alto_valor|retencion|recurrente|referidor>",
      "motivo": "<una oración explicando el score>",
      "accion_sugerida": "<una acción concreta de CRM o marketing>"
    }
  ]
}`

const leadPromotionPrompt = `Eres el encargado de marketing de un restaurante peruano.
Para cada lead redacta una promoción breve (máximo 2 oraciones, tono cercano) que un operador revisará antes de enviarla.

Devuelve ÚNICAMENTE un JSON válido (sin markdown) con este formato:
{"promociones": [{"id_cliente": "<id>", "promocion": "<texto>"}]}`

// clientID accepts ids the model returns as numbers or strings.
type clientID string

func (c *clientID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = clientID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = clientID(n.String())
	return nil
}

type scoredLead struct {
	ClientID        clientID `json:"id_cliente"`
	Score           int      `json:"score"`
	Category        string   `json:"categoria"`
	Reason          string   `json:"motivo"`
	SuggestedAction string   `json:"accion_sugerida"`
}

type promotionDraft struct {
	ClientID  clientID `json:"id_cliente"`
	Promotion string   `json:"promocion"`
}

// LeadsService scores customers as CRM leads, ranks them, drafts a
// promotion for each and parks them until an operator approves.
type LeadsService struct {
	llm    LLMClient
	store  LeadStore
	logger *zap.Logger
	now    func() time.Time
}

func NewLeadsService(llm LLMClient, store LeadStore, logger *zap.Logger) *LeadsService {
	return &LeadsService{llm: llm, store: store, logger: logger, now: time.Now}
}

// Run replaces the pending batch with freshly scored leads.
func (s *LeadsService) Run(ctx context.Context, rows []models.FeedbackRow) ([]*models.Lead, error) {
	if s.llm == nil {
		return nil, ErrNoLanguageModel
	}

	scored, err := s.score(ctx, rows)
	if err != nil {
		return nil, err
	}
	leads := s.rank(scored, rows)
	s.draftPromotions(ctx, leads)

	if err := s.store.ReplacePending(ctx, leads); err != nil {
		return nil, fmt.Errorf("failed to store leads: %w", err)
	}

	s.logger.Info("Leads awaiting approval", zap.Int("count", len(leads)))
	return leads, nil
}

func (s *LeadsService) score(ctx context.Context, rows []models.FeedbackRow) ([]scoredLead, error) {
	prompt := fmt.Sprintf("Feedbacks de clientes:\n\n%s\n\nDatos de contacto (referencia):\n%s", FeedbackText(rows), customerData(rows))
	raw, err := s.llm.Generate(ctx, leadScoringPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("lead scoring failed: %w", err)
	}

	var parsed struct {
		Leads []scoredLead `json:"leads"`
	}
	if err := decodeModelJSON(raw, &parsed); err != nil {
		return nil, fmt.Errorf("lead scoring failed: %w", err)
	}
	return parsed.Leads, nil
}

// rank keeps valid leads with score >= 6 for known customers, one per
// customer, and sorts them by score then spend.
func (s *LeadsService) rank(scored []scoredLead, rows []models.FeedbackRow) []*models.Lead {
	byClient := make(map[string]models.FeedbackRow, len(rows))
	for _, r := range rows {
		if r.ClientID != "" {
			byClient[r.ClientID] = r
		}
	}

	now := s.now()
	best := make(map[string]*models.Lead)
	for _, sl := range scored {
		id := string(sl.ClientID)
		category := models.LeadCategory(strings.TrimSpace(strings.ToLower(sl.Category)))
		row, known := byClient[id]
		switch {
		case !known:
			s.logger.Debug("Dropping lead for unknown customer", zap.String("client_id", id))
			continue
		case !category.Valid(), sl.Score < models.MinLeadScore, sl.Score > 10:
			continue
		}
		if prev, ok := best[id]; ok && prev.Score >= sl.Score {
			continue
		}
		best[id] = &models.Lead{
			ID:              uuid.New(),
			ClientID:        id,
			Phone:           row.Phone,
			Spend:           row.Spend,
			Category:        category,
			Score:           sl.Score,
			Reason:          strings.TrimSpace(sl.Reason),
			SuggestedAction: strings.TrimSpace(sl.SuggestedAction),
			Status:          models.LeadPendingApproval,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	leads := make([]*models.Lead, 0, len(best))
	for _, l := range best {
		leads = append(leads, l)
	}
	sort.Slice(leads, func(i, j int) bool {
		if leads[i].Score != leads[j].Score {
			return leads[i].Score > leads[j].Score
		}
		if leads[i].Spend != leads[j].Spend {
			return leads[i].Spend > leads[j].Spend
		}
		return leads[i].ClientID < leads[j].ClientID
	})
	return leads
}

// draftPromotions fills Promotion for every lead. Leads the model skips get
// a template based on their category.
func (s *LeadsService) draftPromotions(ctx context.Context, leads []*models.Lead) {
	if len(leads) == 0 {
		return
	}

	payload, _ := json.Marshal(leads)
	drafts := map[string]string{}
	raw, err := s.llm.Generate(ctx, leadPromotionPrompt, "Leads:\n"+string(payload))
	if err != nil {
		s.logger.Warn("Promotion drafting failed, using templates", zap.Error(err))
	} else {
		var parsed struct {
			Promotions []promotionDraft `json:"promociones"`
		}
		if err := decodeModelJSON(raw, &parsed); err != nil {
			s.logger.Warn("Promotion response not parseable, using templates", zap.Error(err))
		}
		for _, d := range parsed.Promotions {
			if p := strings.TrimSpace(d.Promotion); p != "" {
				drafts[string(d.ClientID)] = p
			}
		}
	}

	for _, l := range leads {
		if p, ok := drafts[l.ClientID]; ok {
			l.Promotion = p
			continue
		}
		l.Promotion = templatePromotion(l)
	}
}

func templatePromotion(l *models.Lead) string {
	if l.SuggestedAction != "" {
		return l.SuggestedAction
	}
	switch l.Category {
	case models.LeadHighValue:
		return "Te invitamos a nuestra próxima cena de degustación con un pisco sour de cortesía."
	case models.LeadRetention:
		return "Queremos recuperar tu confianza: tu próximo postre va por cuenta de la casa."
	case models.LeadRecurring:
		return "Gracias por volver: 10% de descuento en tu siguiente visita."
	default:
		return "Trae a un amigo y ambos reciben una entrada de cortesía."
	}
}

func (s *LeadsService) List(ctx context.Context, status models.LeadStatus) ([]*models.Lead, error) {
	leads, err := s.store.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	return leads, nil
}

// Approve resumes a paused lead. A non-empty promotion replaces the draft.
func (s *LeadsService) Approve(ctx context.Context, id uuid.UUID, promotion string) (*models.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	if lead.Status != models.LeadPendingApproval {
		return nil, ErrLeadNotPending
	}

	if p := strings.TrimSpace(promotion); p != "" {
		lead.Promotion = p
	}
	lead.Status = models.LeadApproved
	lead.UpdatedAt = s.now()

	if err := s.store.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to approve lead: %w", err)
	}
	s.logger.Info("Lead approved", zap.String("lead_id", id.String()), zap.String("client_id", lead.ClientID))
	return lead, nil
}

// FilterLeads keeps leads at or above minScore whose category is listed.
// An empty category list keeps every category.
func FilterLeads(leads []*models.Lead, minScore int, categories []models.LeadCategory) []*models.Lead {
	allowed := make(map[models.LeadCategory]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}
	out := []*models.Lead{}
	for _, l := range leads {
		if l.Score < minScore {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[l.Category]; !ok {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

var leadCSVHeader = []string{"id_cliente", "telefono", "gasto", "categoria", "score", "motivo", "accion_sugerida", "promocion", "estado"}

func WriteLeadsCSV(w io.Writer, leads []*models.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leadCSVHeader); err != nil {
		return err
	}
	for _, l := range leads {
		record := []string{
			l.ClientID,
			l.Phone,
			strconv.FormatFloat(l.Spend, 'f', 2, 64),
			string(l.Category),
			strconv.Itoa(l.Score),
			l.Reason,
			l.SuggestedAction,
			l.Promotion,
			string(l.Status),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func customerData(rows []models.FeedbackRow) string {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"id_cliente", "telefono", "gasto"})
	for _, r := range rows {
		_ = cw.Write([]string{r.ClientID, r.Phone, strconv.FormatFloat(r.Spend, 'f', 2, 64)})
	}
	cw.Flush()
	return buf.String()
}
