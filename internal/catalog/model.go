package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prototype is a normalized catalog record. Once stored in a snapshot it is
// treated as immutable; callers receive read-only views.
type Prototype struct {
	ID        int             `json:"id" validate:"required,gt=0"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Tags      []string        `json:"tags"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// RawPrototype is the loose upstream shape before normalization.
// The upstream catalog serves prices and timestamps as strings and may omit
// any field except the id.
type RawPrototype struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Category  string   `json:"category"`
	Price     string   `json:"price"`
	Tags      []string `json:"tags"`
	UpdatedAt string   `json:"updated_at"`
}

// FetchParams describes one upstream catalog query.
// A zero PrototypeID means "list a page", otherwise a single record fetch.
type FetchParams struct {
	Offset      int `json:"offset" validate:"min=0"`
	Limit       int `json:"limit" validate:"min=1"`
	PrototypeID int `json:"prototypeId,omitempty" validate:"min=0"`
}

const (
	DefaultOffset = 0
	DefaultLimit  = 10
)

// DefaultFetchParams returns the query used when the caller specifies nothing.
func DefaultFetchParams() FetchParams {
	return FetchParams{Offset: DefaultOffset, Limit: DefaultLimit}
}

// Merge overlays the non-zero fields of p onto defaults. Each field is
// considered independently, so a request may override just the limit while
// keeping the default offset, or vice versa.
func (p FetchParams) Merge(defaults FetchParams) FetchParams {
	merged := defaults
	if p.Offset > 0 {
		merged.Offset = p.Offset
	}
	if p.Limit > 0 {
		merged.Limit = p.Limit
	}
	if p.PrototypeID > 0 {
		merged.PrototypeID = p.PrototypeID
	}
	return merged
}
