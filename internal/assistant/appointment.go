package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/parser"
)

const (
	defaultAppointmentTitle = "موعد جديد"
	defaultAppointmentTime  = "09:00"
	defaultReminderMinutes  = 15
)

var (
	titleNoiseRe = regexp.MustCompile(`موعد|ذكرني|تذكير|مهمة|حجز|غداً|غدا|بعد غد|اليوم|بكرة|الساعة|\d+:\d+|\d+`)
	spacesRe     = regexp.MustCompile(`\s+`)
	clockRe      = regexp.MustCompile(`(\d{1,2}):?(\d{2})?`)

	arabicWeekdays = [...]string{"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت"}
	arabicMonths   = [...]string{"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
		"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر"}
)

// dayPart words override any numeric time, checked in this order
var dayParts = []struct {
	words []string
	time  string
}{
	{[]string{"صباحا", "الصباح"}, "09:00"},
	{[]string{"ظهرا", "الظهر"}, "12:00"},
	{[]string{"عصرا", "العصر"}, "16:00"},
	{[]string{"مساء", "المساء"}, "19:00"},
}

func appointmentTitle(text string) string {
	title := titleNoiseRe.ReplaceAllString(text, "")
	title = strings.TrimSpace(spacesRe.ReplaceAllString(title, " "))
	if title == "" {
		return defaultAppointmentTitle
	}
	return title
}

func appointmentDate(text string, now time.Time) string {
	day := now.AddDate(0, 0, 1)
	switch {
	case strings.Contains(text, "غدا") || strings.Contains(text, "غداً") || strings.Contains(text, "بكرة"):
	case strings.Contains(text, "بعد غد"):
		day = now.AddDate(0, 0, 2)
	case strings.Contains(text, "اليوم"):
		day = now
	}
	return day.Format("2006-01-02")
}

func appointmentTime(text string) string {
	t := defaultAppointmentTime
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 24 && minute < 60 {
			t = fmt.Sprintf("%02d:%02d", hour, minute)
		}
	}
	for _, p := range dayParts {
		for _, w := range p.words {
			if strings.Contains(text, w) {
				return p.time
			}
		}
	}
	return t
}

// arabicDate renders 2006-01-02 as "weekday، day month"
func arabicDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s، %d %s", arabicWeekdays[d.Weekday()], d.Day(), arabicMonths[d.Month()-1])
}

func (e *Executor) handleAppointment(ctx context.Context, cmd models.ParsedCommand) CommandResult {
	text := parser.NormalizeDigits(cmd.Entities.Description)
	now := e.store.Now()

	apt := models.Appointment{
		Title:           appointmentTitle(text),
		Date:            appointmentDate(text, now),
		Time:            appointmentTime(text),
		ReminderMinutes: defaultReminderMinutes,
	}
	apt, err := e.store.AddAppointment(ctx, apt)
	if err != nil {
		e.log.Errorf("Failed to store appointment: %v", err)
		return CommandResult{Success: false, Message: msgError}
	}

	msg := fmt.Sprintf("✅ تم حفظ الموعد:\n📅 %s\n🗓️ %s الساعة %s\n🔔 تذكير قبل %d دقيقة",
		apt.Title, arabicDate(apt.Date), apt.Time, apt.ReminderMinutes)
	return CommandResult{Success: true, Message: msg, Agent: AgentFatima, Action: ActionAppointmentAdded}
}

func (e *Executor) handleSymptom(ctx context.Context, cmd models.ParsedCommand) CommandResult {
	if _, err := e.store.AddSymptom(ctx, cmd.Entities.Description); err != nil {
		e.log.Errorf("Failed to store symptom: %v", err)
		return CommandResult{Success: false, Message: msgError}
	}
	return CommandResult{
		Success: true,
		Message: "✅ تم تسجيل العرض. أنصحك بمراجعة طبيب إذا استمر.",
		Agent:   AgentHaifa,
		Action:  ActionSymptomAdded,
	}
}
