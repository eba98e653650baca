package export

import (
	"fmt"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	ics "github.com/arran4/golang-ical"
)

const (
	productID       = "-//Barakah//NONSGML v1.0//AR"
	appointmentSpan = time.Hour
	prayerSpan      = 15 * time.Minute
	prayerAlarm     = "-PT10M"
)

type prayer struct {
	key  string
	name string
	at   string
}

func prayersOf(t models.PrayerTimes) []prayer {
	return []prayer{
		{"fajr", "الفجر", t.Fajr},
		{"dhuhr", "الظهر", t.Dhuhr},
		{"asr", "العصر", t.Asr},
		{"maghrib", "المغرب", t.Maghrib},
		{"isha", "العشاء", t.Isha},
	}
}

// AppointmentsICS writes appointments as one-hour VEVENTs. An appointment
// with a reminder offset gets a display alarm that many minutes before it.
// Appointments whose date or time cannot be read are skipped and counted.
func AppointmentsICS(apts []models.Appointment, loc *time.Location, now time.Time) ([]byte, int, error) {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("مواعيد بركة")

	skipped := 0
	for _, apt := range apts {
		start, err := apt.StartsAt(loc)
		if err != nil {
			skipped++
			continue
		}
		ev := cal.AddEvent(apt.ID + "@barakah.app")
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(start.UTC())
		ev.SetEndAt(start.Add(appointmentSpan).UTC())
		ev.SetSummary(apt.Title)
		if apt.Location != "" {
			ev.SetLocation(apt.Location)
		}
		if apt.Notes != "" {
			ev.SetDescription(apt.Notes)
		}
		if apt.ReminderMinutes > 0 {
			alarm := ev.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dM", apt.ReminderMinutes))
			alarm.SetProperty(ics.ComponentPropertyDescription, apt.Title)
		}
	}
	return []byte(cal.Serialize()), skipped, nil
}

// PrayerTimesICS repeats the five daily prayers for days days starting on
// the day of from. Sunrise is not a prayer and is left out. Each event lasts
// fifteen minutes and alarms ten minutes ahead.
func PrayerTimesICS(times models.PrayerTimes, from time.Time, days int, place string, now time.Time) ([]byte, error) {
	loc := from.Location()
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName("أوقات الصلاة")
	cal.SetXWRCalDesc("أوقات الصلاة اليومية")
	cal.SetXWRTimezone(loc.String())

	for _, p := range prayersOf(times) {
		if _, err := time.Parse("15:04", p.at); err != nil {
			return nil, fmt.Errorf("invalid %s time %q: %w", p.key, p.at, err)
		}
	}

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for i := 0; i < days; i++ {
		date := day.AddDate(0, 0, i).Format("2006-01-02")
		for _, p := range prayersOf(times) {
			start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+p.at, loc)
			if err != nil {
				return nil, fmt.Errorf("invalid %s time %q: %w", p.key, p.at, err)
			}
			ev := cal.AddEvent(fmt.Sprintf("prayer-%s-%s@barakah.app", p.key, date))
			ev.SetDtStampTime(now.UTC())
			ev.SetStartAt(start.UTC())
			ev.SetEndAt(start.Add(prayerSpan).UTC())
			ev.SetSummary("صلاة " + p.name)
			ev.SetDescription("وقت صلاة " + p.name)
			if place != "" {
				ev.SetLocation(place)
			}
			ev.SetStatus(ics.ObjectStatusConfirmed)
			ev.AddProperty(ics.ComponentPropertyCategories, "صلاة")
			ev.AddProperty(ics.ComponentPropertyCategories, p.name)

			alarm := ev.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetTrigger(prayerAlarm)
			alarm.SetProperty(ics.ComponentPropertyDescription, "حان وقت الصلاة")
		}
	}
	return []byte(cal.Serialize()), nil
}
