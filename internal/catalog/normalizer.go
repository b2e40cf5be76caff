package catalog

import (
	"strings"
	"time"

	"github.com/bassista/proto_cache/internal/logger"
	"github.com/shopspring/decimal"
)

// Normalizer converts raw upstream records into Prototypes.
type Normalizer interface {
	Normalize(raw []RawPrototype) []Prototype
}

// DefaultNormalizer applies the standard field rules. Anomalies (bad price,
// unparseable timestamp, missing id) are logged and the record is kept with
// a zero value for the offending field; records without an id are dropped.
type DefaultNormalizer struct{}

func NewDefaultNormalizer() *DefaultNormalizer {
	return &DefaultNormalizer{}
}

// timestampLayouts are tried in order; the upstream has served all of these.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (n *DefaultNormalizer) Normalize(raw []RawPrototype) []Prototype {
	out := make([]Prototype, 0, len(raw))
	for _, r := range raw {
		if r.ID <= 0 {
			logger.WithComponent("normalizer").Warnf("dropping record without a positive id: %+v", r)
			continue
		}

		p := Prototype{
			ID:       r.ID,
			Name:     strings.TrimSpace(r.Name),
			Slug:     normalizeSlug(r.Slug, r.Name),
			Category: strings.ToLower(strings.TrimSpace(r.Category)),
			Tags:     normalizeTags(r.Tags),
		}

		if r.Price != "" {
			price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
			if err != nil {
				logger.WithComponent("normalizer").Warnf("record %d: unparseable price %q: %v", r.ID, r.Price, err)
			} else {
				p.Price = price
			}
		}

		if r.UpdatedAt != "" {
			if ts, ok := parseTimestamp(r.UpdatedAt); ok {
				p.UpdatedAt = &ts
			} else {
				logger.WithComponent("normalizer").Warnf("record %d: unparseable timestamp %q", r.ID, r.UpdatedAt)
			}
		}

		out = append(out, p)
	}
	return out
}

func parseTimestamp(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeSlug(slug, name string) string {
	s := strings.TrimSpace(slug)
	if s == "" {
		s = strings.TrimSpace(name)
	}
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, " ", "-")
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
