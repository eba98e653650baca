package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/barakah/internal/models"
)

type prayerSlot struct {
	name string
	time string
}

func prayerSlots(t models.PrayerTimes) []prayerSlot {
	return []prayerSlot{
		{"الفجر", t.Fajr},
		{"الظهر", t.Dhuhr},
		{"العصر", t.Asr},
		{"المغرب", t.Maghrib},
		{"العشاء", t.Isha},
	}
}

// clockMinutes parses HH:MM into minutes after midnight
func clockMinutes(hhmm string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	// aladhan appends a zone suffix such as "05:12 (ART)"
	m, _, _ = strings.Cut(m, " ")
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}

func formatRemaining(diff int) string {
	hours, mins := diff/60, diff%60
	if hours > 0 {
		return fmt.Sprintf("%d ساعة و %d دقيقة", hours, mins)
	}
	return fmt.Sprintf("%d دقيقة", mins)
}

// nextPrayer scans the five prayers in order for the first one strictly
// after now, at minute resolution
func nextPrayer(times models.PrayerTimes, now time.Time) string {
	current := now.Hour()*60 + now.Minute()
	for _, p := range prayerSlots(times) {
		at, ok := clockMinutes(p.time)
		if !ok {
			continue
		}
		if at > current {
			return fmt.Sprintf("🕌 الصلاة القادمة: %s الساعة %s\n⏱️ باقي: %s", p.name, p.time, formatRemaining(at-current))
		}
	}
	return fmt.Sprintf("🕌 الصلاة القادمة: الفجر غداً الساعة %s", times.Fajr)
}

func (e *Executor) handlePrayer(ctx context.Context) CommandResult {
	times, err := e.store.PrayerTimes(ctx)
	if err != nil {
		e.log.Warnf("Falling back to default prayer times: %v", err)
		times = models.DefaultPrayerTimes()
	}
	return CommandResult{Success: true, Message: nextPrayer(times, e.store.Now()), Agent: AgentAhmed}
}
