package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"restaurantai/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

var ErrUnknownCategory = errors.New("unknown category")

// Catalog is an immutable snapshot of the controlled tag vocabulary.
type Catalog struct {
	entries   []models.CatalogEntry
	byTag     map[string]models.CatalogEntry
	exact     map[string]string
	folded    map[string]string
	signature string
}

// NewCatalog validates entries and builds the alias tables. Canonical names
// take priority over synonyms when they collide.
func NewCatalog(entries []models.CatalogEntry) (*Catalog, error) {
	c := &Catalog{
		byTag:  make(map[string]models.CatalogEntry, len(entries)),
		exact:  make(map[string]string),
		folded: make(map[string]string),
	}

	for _, e := range entries {
		e.Tag = NormalizeTagName(e.Tag)
		if e.Tag == "" {
			return nil, errors.New("catalog entry with empty tag")
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("%w %q for tag %q", ErrUnknownCategory, e.Category, e.Tag)
		}
		if _, dup := c.byTag[e.Tag]; dup {
			return nil, fmt.Errorf("duplicate catalog tag %q", e.Tag)
		}
		syn := make([]string, 0, len(e.Synonyms))
		for _, s := range e.Synonyms {
			if s = NormalizeTagName(s); s != "" {
				syn = append(syn, s)
			}
		}
		e.Synonyms = syn
		c.byTag[e.Tag] = e
		c.entries = append(c.entries, e)
	}
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Tag < c.entries[j].Tag })

	for _, e := range c.entries {
		c.alias(e.Tag, e.Tag)
	}
	for _, e := range c.entries {
		for _, s := range e.Synonyms {
			c.alias(s, e.Tag)
		}
	}

	c.signature = c.computeSignature()
	return c, nil
}

func (c *Catalog) alias(name, tag string) {
	if _, taken := c.exact[name]; !taken {
		c.exact[name] = tag
	}
	f := foldAccents(name)
	if _, taken := c.folded[f]; !taken {
		c.folded[f] = tag
	}
}

func (c *Catalog) computeSignature() string {
	h := sha256.New()
	for _, e := range c.entries {
		fmt.Fprintf(h, "%s\t%s\t%t\n", e.Tag, e.Category, e.Enabled)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize resolves a raw tag to its catalog entry: exact name, synonym,
// accent-folded form, then singular form. The second result is false for
// tags the catalog does not know.
func (c *Catalog) Normalize(raw string) (models.CatalogEntry, bool) {
	name := NormalizeTagName(raw)
	if name == "" {
		return models.CatalogEntry{}, false
	}
	if tag, ok := c.exact[name]; ok {
		return c.byTag[tag], true
	}
	f := foldAccents(name)
	if tag, ok := c.folded[f]; ok {
		return c.byTag[tag], true
	}
	for _, suffix := range []string{"es", "s"} {
		if stem := strings.TrimSuffix(f, suffix); stem != f && stem != "" {
			if tag, ok := c.folded[stem]; ok {
				return c.byTag[tag], true
			}
		}
	}
	return models.CatalogEntry{}, false
}

// Contains reports whether tag is an enabled canonical catalog tag.
func (c *Catalog) Contains(tag string) bool {
	e, ok := c.byTag[tag]
	return ok && e.Enabled
}

func (c *Catalog) Lookup(tag string) (models.CatalogEntry, bool) {
	e, ok := c.byTag[tag]
	return e, ok
}

// Entries returns all entries sorted by tag.
func (c *Catalog) Entries() []models.CatalogEntry {
	out := make([]models.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Enabled returns the highlighted tag set sorted by tag.
func (c *Catalog) Enabled() []models.CatalogEntry {
	var out []models.CatalogEntry
	for _, e := range c.entries {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// Signature changes whenever the tags, categories or enabled flags change.
func (c *Catalog) Signature() string {
	return c.signature
}

// NormalizeTagName trims, lower-cases and joins words with underscores.
func NormalizeTagName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), "_")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

type catalogFileEntry struct {
	Tag      string   `yaml:"tag"`
	Category string   `yaml:"category"`
	Synonyms []string `yaml:"synonyms"`
	Enabled  *bool    `yaml:"enabled"`
}

type catalogFile struct {
	Tags []catalogFileEntry `yaml:"tags"`
}

// LoadCatalogFile reads seed entries from a YAML file. Entries without an
// explicit enabled flag are enabled.
func LoadCatalogFile(path string) ([]models.CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	entries := make([]models.CatalogEntry, 0, len(f.Tags))
	for _, t := range f.Tags {
		enabled := true
		if t.Enabled != nil {
			enabled = *t.Enabled
		}
		entries = append(entries, models.CatalogEntry{
			Tag:      t.Tag,
			Category: models.Category(t.Category),
			Synonyms: t.Synonyms,
			Enabled:  enabled,
		})
	}
	return entries, nil
}
