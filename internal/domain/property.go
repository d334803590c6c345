package domain

// PropertyType is the optional listing category.
type PropertyType string

const (
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeVilla     PropertyType = "villa"
	PropertyTypeCondo     PropertyType = "condo"
)

// Valid reports whether t is one of the known listing categories.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeHouse, PropertyTypeApartment, PropertyTypeVilla, PropertyTypeCondo:
		return true
	}
	return false
}

// PropertyStatus is the optional market status of a listing.
type PropertyStatus string

const (
	PropertyStatusForSale PropertyStatus = "for-sale"
	PropertyStatusForRent PropertyStatus = "for-rent"
	PropertyStatusSold    PropertyStatus = "sold"
	PropertyStatusRented  PropertyStatus = "rented"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusForSale, PropertyStatusForRent, PropertyStatusSold, PropertyStatusRented:
		return true
	}
	return false
}

// ListingFields holds every field a client may set on a listing.
// JSON names match the PropertyListing resource of the listings API.
type ListingFields struct {
	Name              string  `json:"name"`
	BuildingNumber    string  `json:"buildingNumber"`
	CardinalDirection string  `json:"cardinalDirection"`
	City              string  `json:"city"`
	State             string  `json:"state"`
	Country           string  `json:"country"`
	CountryCode       string  `json:"countryCode"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	TimeZone          string  `json:"timeZone"`
	Image             string  `json:"image"`
	OwnerName         string  `json:"ownerName"`
	ContactNumber     string  `json:"contactNumber"`

	Price       *float64        `json:"price,omitempty"`
	Description *string         `json:"description,omitempty"`
	Bedrooms    *int            `json:"bedrooms,omitempty"`
	Bathrooms   *int            `json:"bathrooms,omitempty"`
	Area        *float64        `json:"area,omitempty"`
	Type        *PropertyType   `json:"type,omitempty"`
	Status      *PropertyStatus `json:"status,omitempty"`
}

// PropertyListing is one record of the remote listings collection.
// ID and CreatedAt are assigned by the remote service and never sent by this client.
type PropertyListing struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	ListingFields
}

// ListingPatch is a partial update; nil fields are left out of the request body.
type ListingPatch struct {
	Name              *string         `json:"name,omitempty"`
	BuildingNumber    *string         `json:"buildingNumber,omitempty"`
	CardinalDirection *string         `json:"cardinalDirection,omitempty"`
	City              *string         `json:"city,omitempty"`
	State             *string         `json:"state,omitempty"`
	Country           *string         `json:"country,omitempty"`
	CountryCode       *string         `json:"countryCode,omitempty"`
	Latitude          *float64        `json:"latitude,omitempty"`
	Longitude         *float64        `json:"longitude,omitempty"`
	TimeZone          *string         `json:"timeZone,omitempty"`
	Image             *string         `json:"image,omitempty"`
	OwnerName         *string         `json:"ownerName,omitempty"`
	ContactNumber     *string         `json:"contactNumber,omitempty"`
	Price             *float64        `json:"price,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Bedrooms          *int            `json:"bedrooms,omitempty"`
	Bathrooms         *int            `json:"bathrooms,omitempty"`
	Area              *float64        `json:"area,omitempty"`
	Type              *PropertyType   `json:"type,omitempty"`
	Status            *PropertyStatus `json:"status,omitempty"`
}

// Empty reports whether the patch would send no fields.
func (p ListingPatch) Empty() bool {
	return p == ListingPatch{}
}
