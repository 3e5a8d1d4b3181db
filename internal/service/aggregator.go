package service

import (
	"fmt"
	"math"
	"sort"

	"restaurantai/internal/models"
)

const (
	neutralCategoryScore = 5.0
	maxThemes            = 5
	maxTopDishes         = 3
	maxImprovementAreas  = 3
)

type customerTag struct {
	customer string
	tag      string
}

// Aggregate derives dashboard metrics from the event log. It is pure: the
// same events and catalog always give the same result.
//
// Each customer contributes at most one polarity per tag, resolved with
// mal > bien > neutral. Events whose tag is not an enabled catalog tag are
// ignored.
func Aggregate(events []models.TagEvent, catalog *Catalog, topN int) models.AggregateMetrics {
	if topN < 1 {
		topN = maxThemes
	}

	pairs := make(map[customerTag]models.Polarity)
	customers := make(map[string]struct{})
	counted := 0
	for _, e := range events {
		if !catalog.Contains(e.Tag) {
			continue
		}
		counted++
		k := customerTag{customer: e.CustomerKey(), tag: e.Tag}
		customers[k.customer] = struct{}{}
		if prev, ok := pairs[k]; ok {
			pairs[k] = models.Dominant(prev, e.Polarity)
			continue
		}
		pairs[k] = e.Polarity
	}

	metrics := models.AggregateMetrics{
		TotalClients:   len(customers),
		TotalEvents:    counted,
		CategoryScores: categoryScores(pairs, catalog),
		Sentiment:      sentimentBuckets(pairs),
	}
	metrics.Insights = tagInsights(pairs, catalog)
	metrics.TopTags = topTagsByPolarity(metrics.Insights, topN)
	metrics.Themes = keyThemes(metrics.Insights, topN)
	return metrics
}

// categoryScores rates each category 0-10 as (bien + 0.5*neutral) / total.
// A category without mentions scores 5.0.
func categoryScores(pairs map[customerTag]models.Polarity, catalog *Catalog) map[models.Category]float64 {
	type tally struct{ pos, neu, total int }
	byCat := make(map[models.Category]*tally, len(models.Categories))
	for _, c := range models.Categories {
		byCat[c] = &tally{}
	}
	for k, p := range pairs {
		entry, _ := catalog.Lookup(k.tag)
		t, ok := byCat[entry.Category]
		if !ok {
			continue
		}
		t.total++
		switch p {
		case models.PolarityPositive:
			t.pos++
		case models.PolarityNeutral:
			t.neu++
		}
	}

	scores := make(map[models.Category]float64, len(byCat))
	for c, t := range byCat {
		if t.total == 0 {
			scores[c] = neutralCategoryScore
			continue
		}
		scores[c] = round1((float64(t.pos) + 0.5*float64(t.neu)) / float64(t.total) * 10)
	}
	return scores
}

// sentimentBuckets counts customers by the polarity that dominates across
// all their tags (mal > bien > neutral).
func sentimentBuckets(pairs map[customerTag]models.Polarity) map[models.Polarity]int {
	byCustomer := make(map[string]models.Polarity)
	for k, p := range pairs {
		if prev, ok := byCustomer[k.customer]; ok {
			p = models.Dominant(prev, p)
		}
		byCustomer[k.customer] = p
	}

	out := map[models.Polarity]int{
		models.PolarityPositive: 0,
		models.PolarityNeutral:  0,
		models.PolarityNegative: 0,
	}
	for _, p := range byCustomer {
		out[p]++
	}
	return out
}

// tagInsights sorts by (mal, neutral, bien) descending, then tag name.
func tagInsights(pairs map[customerTag]models.Polarity, catalog *Catalog) []models.TagInsight {
	byTag := make(map[string]*models.TagInsight)
	for k, p := range pairs {
		in, ok := byTag[k.tag]
		if !ok {
			entry, _ := catalog.Lookup(k.tag)
			in = &models.TagInsight{Tag: k.tag, Category: entry.Category}
			byTag[k.tag] = in
		}
		switch p {
		case models.PolarityPositive:
			in.Positive++
		case models.PolarityNegative:
			in.Negative++
		default:
			in.Neutral++
		}
		in.Total++
	}

	out := make([]models.TagInsight, 0, len(byTag))
	for _, in := range byTag {
		in.Balance = in.Positive - in.Negative
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Negative != b.Negative {
			return a.Negative > b.Negative
		}
		if a.Neutral != b.Neutral {
			return a.Neutral > b.Neutral
		}
		if a.Positive != b.Positive {
			return a.Positive > b.Positive
		}
		return a.Tag < b.Tag
	})
	return out
}

// topTagsByPolarity ranks tags mentioned with each polarity by total
// mentions, then by that polarity's count, then by name.
func topTagsByPolarity(insights []models.TagInsight, topN int) map[models.Polarity][]models.TagCount {
	out := make(map[models.Polarity][]models.TagCount, len(models.Polarities))
	for _, p := range models.Polarities {
		var list []models.TagCount
		for _, in := range insights {
			n := polarityCount(in, p)
			if n == 0 {
				continue
			}
			list = append(list, models.TagCount{Tag: in.Tag, Category: in.Category, Count: n, Total: in.Total})
		}
		sort.Slice(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.Total != b.Total {
				return a.Total > b.Total
			}
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.Tag < b.Tag
		})
		if len(list) > topN {
			list = list[:topN]
		}
		if list == nil {
			list = []models.TagCount{}
		}
		out[p] = list
	}
	return out
}

func polarityCount(in models.TagInsight, p models.Polarity) int {
	switch p {
	case models.PolarityPositive:
		return in.Positive
	case models.PolarityNegative:
		return in.Negative
	default:
		return in.Neutral
	}
}

// Strengths returns tags with a positive balance, best first.
func Strengths(insights []models.TagInsight) []models.TagInsight {
	var out []models.TagInsight
	for _, in := range insights {
		if in.Balance > 0 {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		if out[i].Positive != out[j].Positive {
			return out[i].Positive > out[j].Positive
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Complaints returns tags with at least one negative mention, most
// complained about first.
func Complaints(insights []models.TagInsight) []models.TagInsight {
	var out []models.TagInsight
	for _, in := range insights {
		if in.Negative > 0 {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Negative != out[j].Negative {
			return out[i].Negative > out[j].Negative
		}
		if out[i].Balance != out[j].Balance {
			return out[i].Balance < out[j].Balance
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Weaknesses returns tags with a negative balance, worst first. When no tag
// is net negative it falls back to Complaints.
func Weaknesses(insights []models.TagInsight) []models.TagInsight {
	var out []models.TagInsight
	for _, in := range insights {
		if in.Balance < 0 {
			out = append(out, in)
		}
	}
	if len(out) == 0 {
		return Complaints(insights)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance < out[j].Balance
		}
		if out[i].Negative != out[j].Negative {
			return out[i].Negative > out[j].Negative
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func keyThemes(insights []models.TagInsight, topN int) models.KeyThemes {
	themes := models.KeyThemes{
		Praises:          []string{},
		Complaints:       []string{},
		TopDishes:        []string{},
		ImprovementAreas: []string{},
	}

	for i, in := range Strengths(insights) {
		if i >= topN {
			break
		}
		themes.Praises = append(themes.Praises, formatTheme(in.Tag, in.Positive, in.Balance))
		if in.Category == models.CategoryFood && len(themes.TopDishes) < maxTopDishes {
			themes.TopDishes = append(themes.TopDishes, in.Tag)
		}
	}
	for i, in := range Complaints(insights) {
		if i >= topN {
			break
		}
		themes.Complaints = append(themes.Complaints, formatTheme(in.Tag, in.Negative, in.Balance))
		if len(themes.ImprovementAreas) < maxImprovementAreas {
			themes.ImprovementAreas = append(themes.ImprovementAreas, in.Tag)
		}
	}
	return themes
}

func formatTheme(tag string, clients, balance int) string {
	return fmt.Sprintf("%s (%d clientes, balance %+d)", tag, clients, balance)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
