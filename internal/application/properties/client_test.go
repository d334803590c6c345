package properties

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"property-portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   []byte
	CType  string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.reqs...)
}

func setupClientTest(t *testing.T, status int, body string) (*HTTPClient, *recorder) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.reqs = append(rec.reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   b,
			CType:  r.Header.Get("Content-Type"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/api/properties", 0), rec
}

const oneListing = `[{"id":"1","createdAt":"2025-09-03T10:00:00.000Z","name":"A","city":"X","state":"S","country":"C","countryCode":"CC","latitude":1.5,"longitude":-2.25,"buildingNumber":"12","cardinalDirection":"North","timeZone":"UTC","image":"https://img/1.png","ownerName":"O","contactNumber":"555"}]`

func TestGetAllProperties_Success(t *testing.T) {
	c, rec := setupClientTest(t, http.StatusOK, oneListing)

	got, err := c.GetAllProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "X", got[0].City)
	assert.Equal(t, 1.5, got[0].Latitude)
	assert.Equal(t, -2.25, got[0].Longitude)
	assert.Equal(t, "2025-09-03T10:00:00.000Z", got[0].CreatedAt)
	assert.Nil(t, got[0].Price)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/api/properties/PropertyListing", reqs[0].Path)
	assert.Empty(t, reqs[0].Query)
}

func TestGetAllProperties_OptionalFields(t *testing.T) {
	c, _ := setupClientTest(t, http.StatusOK, `[{"id":"2","name":"B","price":250000,"bedrooms":3,"type":"villa","status":"for-sale"}]`)

	got, err := c.GetAllProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 250000.0, *got[0].Price)
	require.NotNil(t, got[0].Bedrooms)
	assert.Equal(t, 3, *got[0].Bedrooms)
	require.NotNil(t, got[0].Type)
	assert.Equal(t, domain.PropertyTypeVilla, *got[0].Type)
	require.NotNil(t, got[0].Status)
	assert.Equal(t, domain.PropertyStatusForSale, *got[0].Status)
}

func TestOperations_NonSuccessStatus(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		op   Operation
		call func(c *HTTPClient) error
	}{
		{OpListAll, func(c *HTTPClient) error { _, err := c.GetAllProperties(ctx); return err }},
		{OpGetByID, func(c *HTTPClient) error { _, err := c.GetPropertyByID(ctx, "1"); return err }},
		{OpListByCity, func(c *HTTPClient) error { _, err := c.GetPropertiesByCity(ctx, "X"); return err }},
		{OpListByState, func(c *HTTPClient) error { _, err := c.GetPropertiesByState(ctx, "S"); return err }},
		{OpSearch, func(c *HTTPClient) error { _, err := c.SearchProperties(ctx, "a"); return err }},
		{OpFeatured, func(c *HTTPClient) error { _, err := c.GetFeaturedProperties(ctx, 2); return err }},
		{OpCreate, func(c *HTTPClient) error { _, err := c.CreateProperty(ctx, domain.ListingFields{Name: "A"}); return err }},
		{OpUpdate, func(c *HTTPClient) error {
			name := "B"
			_, err := c.UpdateProperty(ctx, "1", domain.ListingPatch{Name: &name})
			return err
		}},
		{OpDelete, func(c *HTTPClient) error { return c.DeleteProperty(ctx, "1") }},
	}
	for _, tc := range cases {
		t.Run(string(tc.op), func(t *testing.T) {
			c, _ := setupClientTest(t, http.StatusInternalServerError, `{"msg":"boom"}`)
			err := tc.call(c)
			require.Error(t, err)
			assert.Equal(t, tc.op.String(), err.Error())

			var f *RetrievalFailure
			require.True(t, errors.As(err, &f))
			assert.Equal(t, KindStatus, f.Kind)
			assert.Equal(t, http.StatusInternalServerError, f.StatusCode)
		})
	}
}

func TestGetPropertyByID_NotFound(t *testing.T) {
	c, rec := setupClientTest(t, http.StatusNotFound, `"Not found"`)

	got, err := c.GetPropertyByID(context.Background(), "missing")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch property", err.Error())
	reqs := rec.all()
	assert.Equal(t, "/api/properties/PropertyListing/missing", reqs[0].Path)
}

func TestGetAllProperties_DecodeFailure(t *testing.T) {
	c, _ := setupClientTest(t, http.StatusOK, `not json`)

	_, err := c.GetAllProperties(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch properties", err.Error())
	var f *RetrievalFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, KindDecode, f.Kind)
}

func TestGetAllProperties_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, 0)
	_, err := c.GetAllProperties(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch properties", err.Error())
	var f *RetrievalFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, KindNetwork, f.Kind)
	assert.Zero(t, f.StatusCode)
}

func TestFilters_QueryParameters(t *testing.T) {
	ctx := context.Background()
	c, rec := setupClientTest(t, http.StatusOK, `[]`)

	_, err := c.GetPropertiesByCity(ctx, "New York")
	require.NoError(t, err)
	_, err = c.GetPropertiesByState(ctx, "Bali")
	require.NoError(t, err)
	_, err = c.SearchProperties(ctx, "sea view & pool")
	require.NoError(t, err)
	_, err = c.GetFeaturedProperties(ctx, 4)
	require.NoError(t, err)
	_, err = c.GetFeaturedProperties(ctx, 0)
	require.NoError(t, err)

	reqs := rec.all()
	require.Len(t, reqs, 5)
	assert.Equal(t, []string{"New York"}, reqs[0].Query["city"])
	assert.Equal(t, []string{"Bali"}, reqs[1].Query["state"])
	assert.Equal(t, []string{"sea view & pool"}, reqs[2].Query["search"])
	assert.Equal(t, []string{"4"}, reqs[3].Query["limit"])
	assert.Equal(t, []string{"6"}, reqs[4].Query["limit"])
	for _, r := range reqs {
		assert.Equal(t, "/api/properties/PropertyListing", r.Path)
	}
}

func TestCreateProperty_SendsBodyWithoutServerFields(t *testing.T) {
	c, rec := setupClientTest(t, http.StatusCreated, `{"id":"42","createdAt":"2025-09-03T10:00:00.000Z","name":"New","city":"X"}`)

	price := 1200.0
	got, err := c.CreateProperty(context.Background(), domain.ListingFields{Name: "New", City: "X", Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, "2025-09-03T10:00:00.000Z", got.CreatedAt)

	reqs := rec.all()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "application/json", r.CType)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &sent))
	assert.NotContains(t, sent, "id")
	assert.NotContains(t, sent, "createdAt")
	assert.NotContains(t, sent, "description")
	assert.Equal(t, "New", sent["name"])
	assert.Equal(t, 1200.0, sent["price"])
}

func TestUpdateProperty_SendsPartialBody(t *testing.T) {
	c, rec := setupClientTest(t, http.StatusOK, `{"id":"7","name":"Renamed","city":"X"}`)

	name := "Renamed"
	got, err := c.UpdateProperty(context.Background(), "7", domain.ListingPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	reqs := rec.all()
	r := reqs[0]
	assert.Equal(t, http.MethodPut, r.Method)
	assert.Equal(t, "/api/properties/PropertyListing/7", r.Path)
	assert.JSONEq(t, `{"name":"Renamed"}`, string(r.Body))
}

func TestDeleteProperty(t *testing.T) {
	c, rec := setupClientTest(t, http.StatusOK, ``)

	require.NoError(t, c.DeleteProperty(context.Background(), "9"))
	reqs := rec.all()
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
	assert.Equal(t, "/api/properties/PropertyListing/9", reqs[0].Path)
	assert.Empty(t, reqs[0].Body)
}

func TestGetPropertyByID_Idempotent(t *testing.T) {
	c, _ := setupClientTest(t, http.StatusOK, `{"id":"1","name":"A","city":"X","latitude":3.25}`)
	ctx := context.Background()

	first, err := c.GetPropertyByID(ctx, "1")
	require.NoError(t, err)
	second, err := c.GetPropertyByID(ctx, "1")
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, a, b)
}

func TestNewHTTPClient_DefaultBaseURL(t *testing.T) {
	c := NewHTTPClient("  ", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
}
