package models

import "time"

type CatalogEntry struct {
	Tag      string   `db:"tag" json:"tag" yaml:"tag"`
	Category Category `db:"category" json:"category" yaml:"category"`
	Synonyms []string `db:"synonyms" json:"synonyms" yaml:"synonyms"`
	Enabled  bool     `db:"enabled" json:"enabled" yaml:"enabled"`
}

// PendingTag is a tag the classifier proposed that the catalog does not know.
type PendingTag struct {
	Tag         string    `db:"tag" json:"tag"`
	FirstSeenAt time.Time `db:"first_seen_at" json:"first_seen_at"`
	ExampleText string    `db:"example_text" json:"example_text"`
	Occurrences int       `db:"occurrences" json:"occurrences"`
}

// DefaultCatalog is the seed taxonomy for a Peruvian restaurant.
func DefaultCatalog() []CatalogEntry {
	entry := func(tag string, cat Category, syn ...string) CatalogEntry {
		return CatalogEntry{Tag: tag, Category: cat, Synonyms: syn, Enabled: true}
	}
	return []CatalogEntry{
		entry("mesero", CategoryService, "mozo", "mozos", "personal", "recepcion", "garzon", "garzón"),
		entry("tiempo_espera", CategoryService, "espera", "demora", "tardanza", "lento", "rapidez", "agil", "ágil"),
		entry("cobro", CategoryService, "cuenta", "cobraron", "vuelto", "pago", "recargo"),
		entry("comida", CategoryFood, "sabor", "plato", "platos", "menu", "menú"),
		entry("ceviche", CategoryFood, "tiradito", "leche_de_tigre"),
		entry("lomo_saltado", CategoryFood, "lomo"),
		entry("tacu_tacu", CategoryFood),
		entry("anticuchos", CategoryFood, "anticucho"),
		entry("aji_de_gallina", CategoryFood, "ají_de_gallina"),
		entry("postres", CategoryFood, "postre", "picarones", "alfajores", "suspiro", "mazamorra"),
		entry("bebidas", CategoryFood, "chicha", "pisco", "bebida", "cafe", "café"),
		entry("salado", CategoryFood, "salada", "sal"),
		entry("precio", CategoryValue, "caro", "economico", "económico", "valor", "porciones", "costo"),
		entry("ambiente", CategoryAmbience, "musica", "música", "ruido", "iluminacion", "iluminación", "terraza", "decoracion", "decoración", "olor"),
		entry("experiencia", CategoryExperience, "reserva", "aforo", "trato", "servicio", "general"),
	}
}
