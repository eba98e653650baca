package export

import (
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buenosAires = time.FixedZone("ART", -3*60*60)

func TestAppointmentsICS(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	apts := []models.Appointment{
		{ID: "a1", Title: "الطبيب", Date: "2025-03-11", Time: "10:00", ReminderMinutes: 30, Location: "العيادة", Notes: "أحضر التحاليل"},
		{ID: "a2", Title: "اجتماع", Date: "2025-03-12", Time: "18:30"},
		{ID: "a3", Title: "broken", Date: "tomorrow", Time: "?"},
	}

	out, skipped, err := AppointmentsICS(apts, buenosAires, now)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "UID:a1@barakah.app")
	assert.Contains(t, body, "DTSTART:20250311T130000Z")
	assert.Contains(t, body, "DTEND:20250311T140000Z")
	assert.Contains(t, body, "TRIGGER:-PT30M")
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VALARM"), "only appointments with a reminder get an alarm")
	assert.NotContains(t, body, "broken")

	cal, err := ics.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)
	evs := cal.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, "الطبيب", evs[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "العيادة", evs[0].GetProperty(ics.ComponentPropertyLocation).Value)
	start, err := evs[1].GetStartAt()
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 12, 18, 30, 0, 0, buenosAires).Equal(start))
}

func TestPrayerTimesICS(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	from := time.Date(2025, 3, 10, 22, 15, 0, 0, buenosAires)
	times := models.PrayerTimes{Fajr: "05:30", Sunrise: "07:00", Dhuhr: "12:45", Asr: "16:15", Maghrib: "19:30", Isha: "21:00"}

	out, err := PrayerTimesICS(times, from, 30, "Buenos Aires, Argentina", now)
	require.NoError(t, err)
	body := string(out)

	cal, err := ics.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 150, "five prayers for thirty days")

	assert.Contains(t, body, "UID:prayer-fajr-2025-03-10@barakah.app")
	assert.Contains(t, body, "UID:prayer-isha-2025-04-08@barakah.app")
	assert.NotContains(t, body, "prayer-fajr-2025-04-09")
	assert.NotContains(t, body, "sunrise")
	assert.Contains(t, body, "DTSTART:20250310T083000Z")
	assert.Contains(t, body, "DTEND:20250310T084500Z")
	assert.Equal(t, 150, strings.Count(body, "TRIGGER:-PT10M"))

	t.Run("rejects malformed times", func(t *testing.T) {
		bad := times
		bad.Asr = "late"
		_, err := PrayerTimesICS(bad, from, 1, "", now)
		assert.ErrorContains(t, err, "asr")
	})
}
