package domain

import (
	"context"
	"log/slog"
)

// Coordinate is a latitude/longitude pair encoded as a two-element JSON array.
type Coordinate [2]float64

// MapArtifact holds the three aligned lists rendered into the map page.
// Entry i of each list describes the same marker.
type MapArtifact struct {
	Coords       []Coordinate
	Labels       []string
	Descriptions []string

	// Geocoding outcome counts, for logging and metrics.
	Misses int
	Errors int
}

// Len returns the number of markers.
func (a MapArtifact) Len() int {
	return len(a.Coords)
}

// BuildMapArtifact geocodes every maps query location of every report and
// appends one marker per resolved location. Unresolved locations and geocoder
// errors are logged and skipped (graceful degradation); the remaining
// locations of the same report are still processed.
func BuildMapArtifact(ctx context.Context, reports []Report, geocoder Geocoder, logger *slog.Logger) MapArtifact {
	artifact := MapArtifact{
		Coords:       make([]Coordinate, 0, len(reports)),
		Labels:       make([]string, 0, len(reports)),
		Descriptions: make([]string, 0, len(reports)),
	}

	for _, r := range reports {
		for _, query := range r.MapsQueryLocations {
			result, err := geocoder.Geocode(ctx, query)
			if err != nil {
				logger.Warn("geocoding failed",
					"location", query,
					"date", r.Date.String(),
					"error", err,
				)
				artifact.Errors++
				continue
			}
			if !result.Found {
				logger.Info("location not found", "location", query)
				artifact.Misses++
				continue
			}
			artifact.Coords = append(artifact.Coords, Coordinate{result.Lat, result.Lon})
			artifact.Labels = append(artifact.Labels, r.Label())
			artifact.Descriptions = append(artifact.Descriptions, r.OriginalReport)
		}
	}
	return artifact
}
