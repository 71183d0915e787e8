package address

import (
	"strings"

	"vigil/internal/validation"
)

const (
	ReasonPOBox              validation.ReasonCode = "address.po_box"
	ReasonParserFailed       validation.ReasonCode = "address.parser_failed"
	ReasonPostalCityMismatch validation.ReasonCode = "address.postal_city_mismatch"
	ReasonGeocodeFailed      validation.ReasonCode = "address.geocode_failed"
	ReasonOutOfBounds        validation.ReasonCode = "address.out_of_bounds"
)

// Input is a structured postal address. Country is ISO-2.
type Input struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Admin1     string `json:"admin1,omitempty"`
	Admin2     string `json:"admin2,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OneLine renders the address as a single geocoding query string.
func (in Input) OneLine() string {
	parts := make([]string, 0, 7)
	for _, p := range []string{in.Line1, in.Line2, in.City, in.Admin1, in.Admin2, in.PostalCode, in.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// GeoCandidate is one geocoding answer. It lives and dies with the result
// that produced it.
type GeoCandidate struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Result is the address validation outcome. deliverable implies valid, and
// a P.O. box is never deliverable.
type Result struct {
	validation.Result
	Normalized      Input         `json:"normalized"`
	POBox           bool          `json:"po_box"`
	PostalCityMatch bool          `json:"postal_city_match"`
	Geocode         *GeoCandidate `json:"geocode,omitempty"`
	Deliverable     bool          `json:"deliverable"`
}
