package properties

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	propsvc "property-portal/internal/application/properties"
	"property-portal/internal/application/retrieval"
	"property-portal/internal/domain"
	"property-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// FeaturedSource is a warm featured set, served when the requested limit matches.
type FeaturedSource interface {
	Limit() int
	Current() retrieval.State[[]domain.PropertyListing]
}

type Handlers struct {
	API propsvc.API
	// Showcase is optional.
	Showcase FeaturedSource
}

var requiredFields = []string{"name", "city", "state", "country", "image", "ownerName", "contactNumber"}

// GET /api/v1/properties
func (h *Handlers) GetAll(c *fiber.Ctx) error {
	list, err := h.API.GetAllProperties(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return response.List(c, "Properties fetched successfully", list, nil)
}

// GET /api/v1/properties/featured?limit=
func (h *Handlers) GetFeatured(c *fiber.Ctx) error {
	limit := propsvc.DefaultFeaturedLimit
	if h.Showcase != nil {
		limit = h.Showcase.Limit()
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return response.Error(c, "limit must be a positive integer", fiber.StatusBadRequest, nil)
		}
		limit = n
	}

	if h.Showcase != nil && h.Showcase.Limit() == limit {
		st := h.Showcase.Current()
		if !st.Loading && !st.Failed() {
			return response.List(c, "Featured properties fetched successfully", st.Result, fiber.Map{"cached": true})
		}
	}

	list, err := h.API.GetFeaturedProperties(c.UserContext(), limit)
	if err != nil {
		return failure(c, err)
	}
	return response.List(c, "Featured properties fetched successfully", list, fiber.Map{"cached": false})
}

// GET /api/v1/properties/search?q=
func (h *Handlers) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		return response.List[domain.PropertyListing](c, "Properties fetched successfully", nil, nil)
	}
	list, err := h.API.SearchProperties(c.UserContext(), q)
	if err != nil {
		return failure(c, err)
	}
	return response.List(c, "Properties fetched successfully", list, nil)
}

// GET /api/v1/properties/city/:city
func (h *Handlers) GetByCity(c *fiber.Ctx) error {
	city := pathParam(c, "city")
	if city == "" {
		return response.Error(c, "city is required", fiber.StatusBadRequest, nil)
	}
	list, err := h.API.GetPropertiesByCity(c.UserContext(), city)
	if err != nil {
		return failure(c, err)
	}
	return response.List(c, "Properties fetched successfully", list, nil)
}

// GET /api/v1/properties/state/:state
func (h *Handlers) GetByState(c *fiber.Ctx) error {
	state := pathParam(c, "state")
	if state == "" {
		return response.Error(c, "state is required", fiber.StatusBadRequest, nil)
	}
	list, err := h.API.GetPropertiesByState(c.UserContext(), state)
	if err != nil {
		return failure(c, err)
	}
	return response.List(c, "Properties fetched successfully", list, nil)
}

// GET /api/v1/properties/:id
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	id := pathParam(c, "id")
	if id == "" {
		return response.Error(c, "id is required", fiber.StatusBadRequest, nil)
	}
	p, err := h.API.GetPropertyByID(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	return response.Success(c, "Property fetched successfully", p, fiber.Map{"geohash": p.Geohash(domain.NeighbourhoodPrecision)})
}

// GET /api/v1/properties/:id/nearby: listings sharing the property's geohash cell
func (h *Handlers) GetNearby(c *fiber.Ctx) error {
	id := pathParam(c, "id")
	if id == "" {
		return response.Error(c, "id is required", fiber.StatusBadRequest, nil)
	}
	precision := uint(domain.NeighbourhoodPrecision)
	if raw := c.Query("precision"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			return response.Error(c, "precision must be between 1 and 12", fiber.StatusBadRequest, nil)
		}
		precision = uint(n)
	}
	center, err := h.API.GetPropertyByID(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	all, err := h.API.GetAllProperties(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	near := domain.Near(*center, all, precision)
	return response.List(c, "Properties fetched successfully", near, fiber.Map{"geohash": center.Geohash(precision)})
}

// POST /api/v1/properties: 201 with the created listing
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	for _, f := range requiredFields {
		if body[f] == nil || body[f] == "" {
			return response.Error(c, fmt.Sprintf("Missing required field: %s", f), fiber.StatusBadRequest, nil)
		}
	}
	if problems, err := validateBody(listingSchema, c.Body()); err != nil || len(problems) > 0 {
		return invalid(c, problems)
	}
	var fields domain.ListingFields
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}

	created, err := h.API.CreateProperty(c.UserContext(), fields)
	if err != nil {
		return failure(c, err)
	}
	log.Info().Str("id", created.ID).Str("name", created.Name).Msg("Property created")
	return response.SuccessCreated(c, "Property created successfully", created, nil)
}

// PUT /api/v1/properties/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id := pathParam(c, "id")
	if id == "" {
		return response.Error(c, "id is required", fiber.StatusBadRequest, nil)
	}
	var patch domain.ListingPatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if patch.Empty() {
		return response.Error(c, "No fields to update", fiber.StatusBadRequest, nil)
	}
	if problems, err := validateBody(patchSchema, c.Body()); err != nil || len(problems) > 0 {
		return invalid(c, problems)
	}

	updated, err := h.API.UpdateProperty(c.UserContext(), id, patch)
	if err != nil {
		return failure(c, err)
	}
	return response.Success(c, "Property updated successfully", updated, nil)
}

// DELETE /api/v1/properties/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id := pathParam(c, "id")
	if id == "" {
		return response.Error(c, "id is required", fiber.StatusBadRequest, nil)
	}
	if err := h.API.DeleteProperty(c.UserContext(), id); err != nil {
		return failure(c, err)
	}
	log.Info().Str("id", id).Msg("Property deleted")
	return response.Success(c, "Property deleted successfully", fiber.Map{"id": id}, nil)
}

// pathParam returns the unescaped, trimmed route parameter.
func pathParam(c *fiber.Ctx, name string) string {
	v := c.Params(name)
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	return strings.TrimSpace(v)
}

func invalid(c *fiber.Ctx, problems []string) error {
	if len(problems) == 0 {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	return response.Error(c, "Invalid property fields", fiber.StatusBadRequest, fiber.Map{"fields": problems})
}

// failure maps a listings API error to the envelope: upstream 404 stays 404,
// everything else is a 502 carrying the operation's fixed message.
func failure(c *fiber.Ctx, err error) error {
	var rf *propsvc.RetrievalFailure
	if !errors.As(err, &rf) {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	if rf.Kind == propsvc.KindStatus && rf.StatusCode == fiber.StatusNotFound {
		return response.Error(c, rf.Error(), fiber.StatusNotFound, nil)
	}
	return response.Error(c, rf.Error(), fiber.StatusBadGateway, nil)
}
