package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
// Found is false when the provider had no match for the query.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	Found            bool
}

// Geocoder resolves free-text location names to coordinates.
type Geocoder interface {
	// Geocode resolves a location query. A query with no match returns a
	// result with Found false and a nil error.
	Geocode(ctx context.Context, query string) (GeocodingResult, error)
}
