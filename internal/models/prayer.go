package models

// PrayerTimes holds the day's prayer times as HH:MM strings
type PrayerTimes struct {
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise,omitempty"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// DefaultPrayerTimes is the schedule used when nothing is cached
func DefaultPrayerTimes() PrayerTimes {
	return PrayerTimes{
		Fajr:    "05:30",
		Dhuhr:   "12:45",
		Asr:     "16:15",
		Maghrib: "19:30",
		Isha:    "21:00",
	}
}

// Merge overlays the non-empty fields of o onto p
func (p PrayerTimes) Merge(o PrayerTimes) PrayerTimes {
	if o.Fajr != "" {
		p.Fajr = o.Fajr
	}
	if o.Sunrise != "" {
		p.Sunrise = o.Sunrise
	}
	if o.Dhuhr != "" {
		p.Dhuhr = o.Dhuhr
	}
	if o.Asr != "" {
		p.Asr = o.Asr
	}
	if o.Maghrib != "" {
		p.Maghrib = o.Maghrib
	}
	if o.Isha != "" {
		p.Isha = o.Isha
	}
	return p
}

// PrayerCache is the stored form of the day's times
type PrayerCache struct {
	Times  PrayerTimes `json:"times"`
	Source string      `json:"source"`
	Date   string      `json:"date,omitempty"`
}
