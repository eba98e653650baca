package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CategoryOther   = "other"
	CategoryHome    = "home"
	CategoryWork    = "work"
	CategoryMosque  = "mosque"
	CategoryParking = "parking"
)

// Location is a bookmarked place addressed by a geo: URL
type Location struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"` // geo:lat,lng
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l Location) SyncKey() string         { return l.ID }
func (l Location) LastModified() time.Time { return l.UpdatedAt }

// Position is a device-reported coordinate pair
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoURL formats the position as geo:lat,lng
func (p Position) GeoURL() string {
	return fmt.Sprintf("geo:%s,%s",
		strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		strconv.FormatFloat(p.Longitude, 'f', -1, 64))
}

// ParseGeoURL extracts the coordinates of a geo:lat,lng URL
func ParseGeoURL(url string) (Position, error) {
	rest, ok := strings.CutPrefix(url, "geo:")
	if !ok {
		return Position{}, fmt.Errorf("not a geo url: %q", url)
	}
	// geo:lat,lng;u=35 carries optional parameters after ';'
	rest, _, _ = strings.Cut(rest, ";")
	latStr, lngStr, ok := strings.Cut(rest, ",")
	if !ok {
		return Position{}, fmt.Errorf("malformed geo url: %q", url)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return Position{Latitude: lat, Longitude: lng}, nil
}
