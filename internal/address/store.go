package address

import "context"

// GazetteerRow is one postal reference record.
type GazetteerRow struct {
	Country    string
	PostalCode string
	City       string
	Admin1     string
	Admin2     string
}

// Gazetteer answers postal-code cross-reference queries against the
// reference table. Read-only.
type Gazetteer interface {
	// Match reports whether the postal code exists in the country with a
	// case-insensitive match on city, admin1, or admin2 against any of the
	// given names.
	Match(ctx context.Context, country, postalCode string, names ...string) (bool, error)
}

// BoundingBox is a country's geographic envelope. A box that crosses the
// antimeridian has MinLng > MaxLng.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point falls inside the box, handling the
// antimeridian wrap.
func (b BoundingBox) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.MinLng <= b.MaxLng {
		return lng >= b.MinLng && lng <= b.MaxLng
	}
	return lng >= b.MinLng || lng <= b.MaxLng
}

// BoundsStore resolves a country's bounding box. Read-only.
type BoundsStore interface {
	Bounds(ctx context.Context, country string) (BoundingBox, bool, error)
}
