package properties

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"property-portal/internal/domain"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the mock listings service used when no base URL is configured.
const DefaultBaseURL = "https://68b826bcb715405043274639.mockapi.io/api/properties"

// DefaultFeaturedLimit is the number of listings treated as "featured" when no limit is given.
const DefaultFeaturedLimit = 6

const resourcePath = "/PropertyListing"

// maxLoggedBody caps how much of an error response body ends up in logs.
const maxLoggedBody = 512

// API is the listings data access layer.
type API interface {
	GetAllProperties(ctx context.Context) ([]domain.PropertyListing, error)
	GetPropertyByID(ctx context.Context, id string) (*domain.PropertyListing, error)
	GetPropertiesByCity(ctx context.Context, city string) ([]domain.PropertyListing, error)
	GetPropertiesByState(ctx context.Context, state string) ([]domain.PropertyListing, error)
	SearchProperties(ctx context.Context, query string) ([]domain.PropertyListing, error)
	GetFeaturedProperties(ctx context.Context, limit int) ([]domain.PropertyListing, error)
	CreateProperty(ctx context.Context, in domain.ListingFields) (*domain.PropertyListing, error)
	UpdateProperty(ctx context.Context, id string, patch domain.ListingPatch) (*domain.PropertyListing, error)
	DeleteProperty(ctx context.Context, id string) error
}

// HTTPClient is an API backed by the listings REST service.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPClient returns a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetAllProperties(ctx context.Context) ([]domain.PropertyListing, error) {
	var out []domain.PropertyListing
	if err := c.do(ctx, OpListAll, http.MethodGet, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetPropertyByID(ctx context.Context, id string) (*domain.PropertyListing, error) {
	var out domain.PropertyListing
	if err := c.do(ctx, OpGetByID, http.MethodGet, "/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetPropertiesByCity(ctx context.Context, city string) ([]domain.PropertyListing, error) {
	return c.list(ctx, OpListByCity, url.Values{"city": {city}})
}

func (c *HTTPClient) GetPropertiesByState(ctx context.Context, state string) ([]domain.PropertyListing, error) {
	return c.list(ctx, OpListByState, url.Values{"state": {state}})
}

// SearchProperties passes query through as the "search" parameter; matching
// is entirely up to the remote service.
func (c *HTTPClient) SearchProperties(ctx context.Context, query string) ([]domain.PropertyListing, error) {
	return c.list(ctx, OpSearch, url.Values{"search": {query}})
}

// GetFeaturedProperties returns the first limit listings. limit <= 0 means DefaultFeaturedLimit.
func (c *HTTPClient) GetFeaturedProperties(ctx context.Context, limit int) ([]domain.PropertyListing, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	return c.list(ctx, OpFeatured, url.Values{"limit": {strconv.Itoa(limit)}})
}

func (c *HTTPClient) CreateProperty(ctx context.Context, in domain.ListingFields) (*domain.PropertyListing, error) {
	var out domain.PropertyListing
	if err := c.do(ctx, OpCreate, http.MethodPost, "", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProperty(ctx context.Context, id string, patch domain.ListingPatch) (*domain.PropertyListing, error) {
	var out domain.PropertyListing
	if err := c.do(ctx, OpUpdate, http.MethodPut, "/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteProperty(ctx context.Context, id string) error {
	return c.do(ctx, OpDelete, http.MethodDelete, "/"+url.PathEscape(id), nil, nil, nil)
}

func (c *HTTPClient) list(ctx context.Context, op Operation, query url.Values) ([]domain.PropertyListing, error) {
	var out []domain.PropertyListing
	if err := c.do(ctx, op, http.MethodGet, "", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// do issues one request and decodes the JSON body into out (skipped when out is nil).
// Every failure is logged here and returned as a *RetrievalFailure.
func (c *HTTPClient) do(ctx context.Context, op Operation, method, path string, query url.Values, body, out interface{}) error {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint := base + resourcePath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return c.fail(method, endpoint, &RetrievalFailure{Op: op, Kind: KindEncode, Err: err}, nil)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return c.fail(method, endpoint, &RetrievalFailure{Op: op, Kind: KindNetwork, Err: err}, nil)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return c.fail(method, endpoint, &RetrievalFailure{Op: op, Kind: KindNetwork, Err: fmt.Errorf("listings request: %w", err)}, nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(method, endpoint, &RetrievalFailure{Op: op, Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("listings response read: %w", err)}, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(method, endpoint, &RetrievalFailure{Op: op, Kind: KindStatus, StatusCode: resp.StatusCode}, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return c.fail(method, endpoint, &RetrievalFailure{Op: op, Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("listings response decode: %w", err)}, respBody)
	}
	return nil
}

func (c *HTTPClient) fail(method, endpoint string, f *RetrievalFailure, body []byte) error {
	ev := log.Error().
		Str("op", f.Op.String()).
		Str("kind", string(f.Kind)).
		Str("method", method).
		Str("url", endpoint)
	if f.StatusCode != 0 {
		ev = ev.Int("status", f.StatusCode)
	}
	if len(body) > 0 {
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody]
		}
		ev = ev.Str("body", string(body))
	}
	if f.Err != nil {
		ev = ev.Err(f.Err)
	}
	ev.Msg("listings API call failed")
	return f
}
