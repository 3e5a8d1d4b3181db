package models

// ExecutiveSummary is the narrative block shown on top of the dashboard.
type ExecutiveSummary struct {
	Summary              string   `json:"resumen"`
	Strengths            []string `json:"fortalezas"`
	Weaknesses           []string `json:"debilidades"`
	ImprovementPlan      []string `json:"plan_mejora"`
	HeadlineStrength     string   `json:"fortaleza_principal"`
	UrgentRecommendation string   `json:"recomendacion_principal"`
	Source               string   `json:"source"`
}

// Signal is a strength or weakness with supporting diner comments.
type Signal struct {
	Tag      string   `json:"tag"`
	Category Category `json:"category"`
	Positive int      `json:"bien"`
	Negative int      `json:"mal"`
	Balance  int      `json:"balance"`
	Samples  []string `json:"samples"`
}

// LegacyThemes is the theme block produced by the raw text chain.
type LegacyThemes struct {
	TopPraises       []string `json:"top_praises"`
	TopComplaints    []string `json:"top_complaints"`
	TopDishes        []string `json:"top_dishes"`
	ImprovementAreas []string `json:"improvement_areas"`
}

type LegacySummary struct {
	Summary              string `json:"resumen"`
	HeadlineStrength     string `json:"fortaleza_principal"`
	UrgentRecommendation string `json:"recomendacion_principal"`
}

// LegacyDashboard is the state of the three-step raw text chain. Error and
// FailedAt are set when a step fails; later steps do not run.
type LegacyDashboard struct {
	SentimentScores map[string]float64 `json:"sentiment_scores"`
	KeyThemes       *LegacyThemes      `json:"key_themes,omitempty"`
	Summary         *LegacySummary     `json:"summary,omitempty"`
	Error           string             `json:"error,omitempty"`
	FailedAt        string             `json:"failed_at,omitempty"`
}
