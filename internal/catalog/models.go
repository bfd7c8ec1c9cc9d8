package catalog

import (
	"strconv"
	"time"
)

// Metadata keys set on every course-unit product.
const (
	MetaCourse     = "course"
	MetaUnit       = "unit"
	MetaUnitNumber = "unitNumber"
	MetaAvailable  = "available"
	MetaType       = "type"
	MetaYoutubeURL = "youtubeUrl"
	MetaPodbeanURL = "podbeanUrl"
)

// Product is a provider-owned catalog entry mirrored locally.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Active      bool              `json:"active"`
	Metadata    map[string]string `json:"metadata"`
}

func (p Product) Course() string { return p.Metadata[MetaCourse] }

// UnitNumber returns the unit number tag, or 0 when it is missing or malformed.
func (p Product) UnitNumber() int {
	v := p.Metadata[MetaUnitNumber]
	if v == "" {
		v = p.Metadata[MetaUnit]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Available reports whether the unit's resources have been published.
func (p Product) Available() bool {
	ok, _ := strconv.ParseBool(p.Metadata[MetaAvailable])
	return ok
}

// Price is a provider-owned price of a Product, in minor currency units.
type Price struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	ProductID  string `json:"product"`
	Active     bool   `json:"active"`
}

// ProductWithPrice is the display view of a product and its active prices.
type ProductWithPrice struct {
	Product
	Prices []Price `json:"prices"`
}

// Row is one (product, price) pair of a left join; Price is nil when the
// product has no matching price.
type Row struct {
	Product Product
	Price   *Price
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListParams controls a page read against the catalog mirror.
type ListParams struct {
	Active bool
	Limit  int
	Offset int
}

func DefaultListParams() ListParams {
	return ListParams{Active: true, Limit: DefaultLimit}
}

// Normalize clamps Limit to 1..MaxLimit and Offset to >= 0.
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ProviderFilter narrows a list call against the provider. A nil Active lists
// everything; a zero Limit reads every page.
type ProviderFilter struct {
	Active *bool
	Limit  int
}

// SyncResult summarises one mirror refresh.
type SyncResult struct {
	Products      int       `json:"products"`
	Prices        int       `json:"prices"`
	SkippedPrices int       `json:"skippedPrices"`
	SyncedAt      time.Time `json:"syncedAt"`
}
