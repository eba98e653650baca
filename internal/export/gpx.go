// Package export converts user data to portable files: GPX waypoints,
// iCalendar feeds and XLSX sheets.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/beevik/etree"
)

const gpxNamespace = "http://www.topografix.com/GPX/1/1"

var ErrNoWaypoints = errors.New("no waypoints found in GPX")

// GPX writes every location with a valid geo URL as a waypoint.
// It returns the document and the number of skipped locations.
func GPX(locations []models.Location, now time.Time) ([]byte, int, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	gpx := doc.CreateElement("gpx")
	gpx.CreateAttr("version", "1.1")
	gpx.CreateAttr("creator", "Barakah")
	gpx.CreateAttr("xmlns", gpxNamespace)

	meta := gpx.CreateElement("metadata")
	meta.CreateElement("name").SetText("Barakah locations")
	meta.CreateElement("time").SetText(now.UTC().Format(time.RFC3339))

	skipped := 0
	for _, loc := range locations {
		pos, err := models.ParseGeoURL(loc.URL)
		if err != nil {
			skipped++
			continue
		}
		wpt := gpx.CreateElement("wpt")
		wpt.CreateAttr("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
		wpt.CreateAttr("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
		if !loc.CreatedAt.IsZero() {
			wpt.CreateElement("time").SetText(loc.CreatedAt.UTC().Format(time.RFC3339))
		}
		wpt.CreateElement("name").SetText(loc.Title)
		if loc.Category != "" {
			wpt.CreateElement("type").SetText(loc.Category)
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to write GPX: %w", err)
	}
	return out, skipped, nil
}

// ParseGPX reads the waypoints of a GPX document as locations without ids
func ParseGPX(raw []byte) ([]models.Location, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	wpts := doc.FindElements("//wpt")
	if len(wpts) == 0 {
		return nil, ErrNoWaypoints
	}

	locations := make([]models.Location, 0, len(wpts))
	for i, wpt := range wpts {
		lat, err := strconv.ParseFloat(wpt.SelectAttrValue("lat", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("waypoint %d: invalid lat: %w", i+1, err)
		}
		lon, err := strconv.ParseFloat(wpt.SelectAttrValue("lon", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("waypoint %d: invalid lon: %w", i+1, err)
		}

		loc := models.Location{
			Title:    childText(wpt, "name"),
			URL:      models.Position{Latitude: lat, Longitude: lon}.GeoURL(),
			Category: childText(wpt, "type"),
		}
		if loc.Title == "" {
			loc.Title = fmt.Sprintf("%g,%g", lat, lon)
		}
		if loc.Category == "" {
			loc.Category = models.CategoryOther
		}
		if ts := childText(wpt, "time"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				loc.CreatedAt = t
			}
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func childText(e *etree.Element, tag string) string {
	if c := e.FindElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
