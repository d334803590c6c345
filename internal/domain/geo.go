package domain

import "github.com/mmcloughlin/geohash"

// NeighbourhoodPrecision groups listings into cells of roughly 5 km.
const NeighbourhoodPrecision = 5

// Geohash encodes the listing's coordinates at the given precision (1-12 chars).
func (f ListingFields) Geohash(precision uint) string {
	if precision == 0 || precision > 12 {
		precision = 12
	}
	return geohash.EncodeWithPrecision(f.Latitude, f.Longitude, precision)
}

// Near lists the listings in the same geohash cell as center, excluding center
// itself.
func Near(center PropertyListing, all []PropertyListing, precision uint) []PropertyListing {
	cell := center.Geohash(precision)
	out := make([]PropertyListing, 0)
	for _, p := range all {
		if p.ID == center.ID {
			continue
		}
		if p.Geohash(precision) == cell {
			out = append(out, p)
		}
	}
	return out
}
