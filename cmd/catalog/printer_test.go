package main

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"property-portal/internal/application/properties"
	"property-portal/internal/application/retrieval"
	"property-portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_Label(t *testing.T) {
	p := newPrinter(&bytes.Buffer{})
	assert.Equal(t, "For Sale", p.label("for-sale"))
	assert.Equal(t, "Apartment", p.label("apartment"))
	assert.Equal(t, "Sold", p.label("sold"))
}

func TestPrinter_Summary(t *testing.T) {
	p := newPrinter(&bytes.Buffer{})
	typ := domain.PropertyTypeVilla
	status := domain.PropertyStatusForRent
	price := 250000.0
	beds := 3
	f := domain.ListingFields{Type: &typ, Status: &status, Price: &price, Bedrooms: &beds}

	assert.Equal(t, "Villa · For Rent · $250000 · 3 bd", p.summary(f))
	assert.Empty(t, p.summary(domain.ListingFields{}))
}

func TestPrinter_List(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)

	p.list("city", retrieval.State[[]domain.PropertyListing]{Loading: true})
	p.list("city", retrieval.State[[]domain.PropertyListing]{Error: "Failed to fetch properties by city"})
	p.list("city", retrieval.State[[]domain.PropertyListing]{})
	p.list("city", retrieval.State[[]domain.PropertyListing]{Result: []domain.PropertyListing{
		{ID: "1", ListingFields: domain.ListingFields{Name: "Sea House", City: "Lisbon"}},
	}})

	out := buf.String()
	assert.Contains(t, out, "[city] loading...")
	assert.Contains(t, out, "[city] Failed to fetch properties by city")
	assert.Contains(t, out, "[city] no properties")
	assert.Contains(t, out, "[city] 1 properties")
	assert.Contains(t, out, "Sea House")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

type stubAPI struct {
	properties.API
	all   []domain.PropertyListing
	calls atomic.Int32
}

func (s *stubAPI) GetAllProperties(ctx context.Context) ([]domain.PropertyListing, error) {
	s.calls.Add(1)
	return s.all, nil
}

func (s *stubAPI) GetPropertyByID(ctx context.Context, id string) (*domain.PropertyListing, error) {
	s.calls.Add(1)
	for i := range s.all {
		if s.all[i].ID == id {
			l := s.all[i]
			return &l, nil
		}
	}
	return nil, &properties.RetrievalFailure{Op: properties.OpGetByID, Kind: properties.KindStatus, StatusCode: 404}
}

func TestSession_Near(t *testing.T) {
	api := lisbonAPI()
	var buf bytes.Buffer
	s := newSession(context.Background(), api, newPrinter(&buf), 0, 2)
	defer s.close()

	require.True(t, s.handle("near 1"))
	out := buf.String()
	assert.Contains(t, out, "[near eycs2]")
	assert.Contains(t, out, "Baixa")
	assert.NotContains(t, out, "Porto")
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestSession_NearUnknownID(t *testing.T) {
	api := lisbonAPI()
	var buf bytes.Buffer
	s := newSession(context.Background(), api, newPrinter(&buf), 0, 2)
	defer s.close()

	require.True(t, s.handle("near 9"))
	assert.Contains(t, buf.String(), "near: "+properties.OpGetByID.String())
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestSession_AllReusesRetriever(t *testing.T) {
	api := lisbonAPI()
	var buf bytes.Buffer
	s := newSession(context.Background(), api, newPrinter(&buf), 0, 2)
	defer s.close()

	require.True(t, s.handle("all"))
	first := s.all
	closers := len(s.closers)
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, s.handle("all"))
	assert.Same(t, first, s.all)
	assert.Len(t, s.closers, closers)
	assert.Equal(t, int32(2), api.calls.Load())
	assert.Contains(t, buf.String(), "[all] 3 properties")
}

func lisbonAPI() *stubAPI {
	return &stubAPI{all: []domain.PropertyListing{
		{ID: "1", ListingFields: domain.ListingFields{Name: "Alfama", Latitude: 38.7223, Longitude: -9.1393}},
		{ID: "2", ListingFields: domain.ListingFields{Name: "Baixa", Latitude: 38.7225, Longitude: -9.1390}},
		{ID: "3", ListingFields: domain.ListingFields{Name: "Porto", Latitude: 41.1579, Longitude: -8.6291}},
	}}
}

func TestSession_Commands(t *testing.T) {
	var buf bytes.Buffer
	s := newSession(context.Background(), &stubAPI{}, newPrinter(&buf), 0, 2)
	defer s.close()

	assert.True(t, s.handle("refetch"))
	assert.True(t, s.handle("bogus"))
	assert.True(t, s.handle("featured x"))
	assert.False(t, s.handle("quit"))

	out := buf.String()
	assert.Contains(t, out, "nothing to refetch")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "featured: limit must be a number")
	assert.False(t, strings.Contains(out, "panic"))
}
