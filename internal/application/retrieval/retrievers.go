package retrieval

import (
	"context"
	"strings"

	"property-portal/internal/application/properties"
	"property-portal/internal/domain"
)

type listings = []domain.PropertyListing

func emptyListings() listings {
	return listings{}
}

func blankString(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AllProperties retrieves the full listing collection as soon as it is created.
type AllProperties struct {
	*core[listings, struct{}]
}

func NewAllProperties(ctx context.Context, api properties.API, opts ...Option) *AllProperties {
	o := buildOptions(opts)
	c := newCore(ctx, descriptor[listings, struct{}]{
		name:  "all",
		empty: emptyListings(),
		fetch: func(ctx context.Context, _ struct{}) (listings, error) {
			return api.GetAllProperties(ctx)
		},
	}, struct{}{}, o)
	c.activate()
	return &AllProperties{core: c}
}

// Featured retrieves the first Limit listings and refetches when the limit changes.
type Featured struct {
	*core[listings, int]
}

// NewFeatured starts retrieving limit listings; limit <= 0 uses properties.DefaultFeaturedLimit.
func NewFeatured(ctx context.Context, api properties.API, limit int, opts ...Option) *Featured {
	o := buildOptions(opts)
	c := newCore(ctx, descriptor[listings, int]{
		name:  "featured",
		empty: emptyListings(),
		fetch: func(ctx context.Context, limit int) (listings, error) {
			return api.GetFeaturedProperties(ctx, limit)
		},
	}, normalizeLimit(limit), o)
	c.activate()
	return &Featured{core: c}
}

// SetLimit rebinds the limit; an unchanged limit does nothing.
func (f *Featured) SetLimit(limit int) {
	f.bind(normalizeLimit(limit))
}

// Limit returns the bound limit.
func (f *Featured) Limit() int {
	return f.Param()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return properties.DefaultFeaturedLimit
	}
	return limit
}

// Property retrieves a single listing. A blank id is never requested and
// leaves the current state as it is.
type Property struct {
	*core[*domain.PropertyListing, string]
}

func NewProperty(ctx context.Context, api properties.API, id string, opts ...Option) *Property {
	o := buildOptions(opts)
	c := newCore(ctx, descriptor[*domain.PropertyListing, string]{
		name: "property",
		fetch: func(ctx context.Context, id string) (*domain.PropertyListing, error) {
			return api.GetPropertyByID(ctx, id)
		},
		blank: func(id string) bool { return id == "" },
	}, id, o)
	c.activate()
	return &Property{core: c}
}

func (p *Property) SetID(id string) {
	p.bind(id)
}

func (p *Property) ID() string {
	return p.Param()
}

// ByCity retrieves the listings of one city. A blank city empties the result
// immediately without a request.
type ByCity struct {
	*core[listings, string]
}

func NewByCity(ctx context.Context, api properties.API, city string, opts ...Option) *ByCity {
	o := buildOptions(opts)
	c := newCore(ctx, descriptor[listings, string]{
		name:  "by-city",
		empty: emptyListings(),
		fetch: func(ctx context.Context, city string) (listings, error) {
			return api.GetPropertiesByCity(ctx, city)
		},
		blank:        blankString,
		clearOnBlank: true,
	}, city, o)
	c.activate()
	return &ByCity{core: c}
}

func (b *ByCity) SetCity(city string) {
	b.bind(city)
}

func (b *ByCity) City() string {
	return b.Param()
}

// ByState retrieves the listings of one state, with the same blank handling as ByCity.
type ByState struct {
	*core[listings, string]
}

func NewByState(ctx context.Context, api properties.API, state string, opts ...Option) *ByState {
	o := buildOptions(opts)
	c := newCore(ctx, descriptor[listings, string]{
		name:  "by-state",
		empty: emptyListings(),
		fetch: func(ctx context.Context, state string) (listings, error) {
			return api.GetPropertiesByState(ctx, state)
		},
		blank:        blankString,
		clearOnBlank: true,
	}, state, o)
	c.activate()
	return &ByState{core: c}
}

func (b *ByState) SetState(state string) {
	b.bind(state)
}

func (b *ByState) StateName() string {
	return b.Param()
}

// Search runs free-text queries. Non-blank query changes wait for a quiet
// period (DefaultSearchDebounce unless overridden) and a newer change within
// that window replaces the pending query, so typing issues one request.
type Search struct {
	*core[listings, string]
}

func NewSearch(ctx context.Context, api properties.API, query string, opts ...Option) *Search {
	o := buildOptions(opts)
	c := newCore(ctx, descriptor[listings, string]{
		name:  "search",
		empty: emptyListings(),
		fetch: func(ctx context.Context, q string) (listings, error) {
			return api.SearchProperties(ctx, q)
		},
		blank:        blankString,
		clearOnBlank: true,
		delay:        o.debounce,
	}, query, o)
	c.activate()
	return &Search{core: c}
}

func (s *Search) SetQuery(query string) {
	s.bind(query)
}

func (s *Search) Query() string {
	return s.Param()
}
