package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/barakah/internal/config"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/sirupsen/logrus"
)

// methodISNA is the calculation method the app has always used
const methodISNA = 3

// Client handles integration with the Aladhan prayer times API
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new Aladhan client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.AladhanURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// buildURL formats the timings endpoint for date at pos
func (c *Client) buildURL(date time.Time, pos models.Position) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	q.Set("method", strconv.Itoa(methodISNA))
	return fmt.Sprintf("%s/v1/timings/%s?%s", c.url, date.Format("02-01-2006"), q.Encode())
}

// GetTimings retrieves the prayer times of date at pos
func (c *Client) GetTimings(ctx context.Context, date time.Time, pos models.Position) (models.PrayerTimes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(date, pos), nil)
	if err != nil {
		return models.PrayerTimes{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.PrayerTimes{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PrayerTimes{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PrayerTimes{}, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed timingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.PrayerTimes{}, fmt.Errorf("failed to parse timings: %w", err)
	}
	t := parsed.Data.Timings
	times := models.PrayerTimes{
		Fajr:    clean(t["Fajr"]),
		Sunrise: clean(t["Sunrise"]),
		Dhuhr:   clean(t["Dhuhr"]),
		Asr:     clean(t["Asr"]),
		Maghrib: clean(t["Maghrib"]),
		Isha:    clean(t["Isha"]),
	}
	if times.Fajr == "" || times.Maghrib == "" {
		return models.PrayerTimes{}, fmt.Errorf("incomplete timings in response")
	}

	c.log.Infof("Retrieved prayer times for %s", date.Format("2006-01-02"))
	return times, nil
}

// clean drops the zone suffix Aladhan sometimes appends, "05:12 (-03)"
func clean(v string) string {
	v, _, _ = strings.Cut(strings.TrimSpace(v), " ")
	return v
}
