package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []SubTask
		want     int
	}{
		{"none", nil, 0},
		{"all open", []SubTask{{}, {}}, 0},
		{"half", []SubTask{{Completed: true}, {}}, 50},
		{"one of three", []SubTask{{Completed: true}, {}, {}}, 33},
		{"two of three", []SubTask{{Completed: true}, {Completed: true}, {}}, 67},
		{"all done", []SubTask{{Completed: true}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateProgress(tt.subtasks))
		})
	}
}

func TestGeoURL(t *testing.T) {
	pos := Position{Latitude: -34.6037, Longitude: -58.3816}
	assert.Equal(t, "geo:-34.6037,-58.3816", pos.GeoURL())

	got, err := ParseGeoURL(pos.GeoURL())
	require.NoError(t, err)
	assert.Equal(t, pos, got)

	got, err = ParseGeoURL("geo:10, 20;u=35")
	require.NoError(t, err)
	assert.Equal(t, Position{Latitude: 10, Longitude: 20}, got)

	for _, bad := range []string{"", "10,20", "geo:10", "geo:a,20", "geo:10,b"} {
		_, err := ParseGeoURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestAppointmentStartsAt(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	apt := Appointment{Date: "2025-03-11", Time: "10:00"}

	start, err := apt.StartsAt(loc)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 3, 11, 13, 0, 0, 0, time.UTC)))

	_, err = Appointment{Date: "2025-03-11", Time: "soon"}.StartsAt(loc)
	assert.Error(t, err)
}

func TestPrayerTimesMerge(t *testing.T) {
	merged := DefaultPrayerTimes().Merge(PrayerTimes{Maghrib: "19:45"})
	assert.Equal(t, "19:45", merged.Maghrib)
	assert.Equal(t, DefaultPrayerTimes().Fajr, merged.Fajr)
}
