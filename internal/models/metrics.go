package models

// TagCount is a tag with a mention count, used for the top-N lists.
type TagCount struct {
	Tag      string   `json:"tag"`
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Total    int      `json:"total"`
}

// TagInsight summarizes one tag across all customers.
type TagInsight struct {
	Tag      string   `json:"tag"`
	Category Category `json:"category"`
	Positive int      `json:"bien"`
	Neutral  int      `json:"neutral"`
	Negative int      `json:"mal"`
	Total    int      `json:"total"`
	Balance  int      `json:"balance"`
}

type KeyThemes struct {
	Praises          []string `json:"praises"`
	Complaints       []string `json:"complaints"`
	TopDishes        []string `json:"top_dishes"`
	ImprovementAreas []string `json:"improvement_areas"`
}

// AggregateMetrics is derived from the event log on demand and never stored.
type AggregateMetrics struct {
	TotalClients   int                     `json:"total_clients"`
	TotalEvents    int                     `json:"total_events"`
	CategoryScores map[Category]float64    `json:"category_scores"`
	Sentiment      map[Polarity]int        `json:"sentiment"`
	TopTags        map[Polarity][]TagCount `json:"top_tags"`
	Insights       []TagInsight            `json:"insights"`
	Themes         KeyThemes               `json:"themes"`
}
