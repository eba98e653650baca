package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dan9191/barakah/internal/service"
)

const (
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(body)
}

func (h *Handler) ExportAppointmentsICS(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ExportAppointmentsICS(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, contentTypeICS, "barakah-appointments.ics", out)
}

func (h *Handler) ExportAppointmentsXLSX(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ExportAppointmentsXLSX(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, contentTypeXLSX, "barakah-appointments.xlsx", out)
}

// ExportPrayerTimesICS serves the prayer calendar; ?days overrides the span
func (h *Handler) ExportPrayerTimesICS(w http.ResponseWriter, r *http.Request) {
	days := service.DefaultPrayerDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be a number")
			return
		}
		days = n
	}
	out, err := h.svc.ExportPrayerTimesICS(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, contentTypeICS, "barakah-prayer-times.ics", out)
}

func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ExportTransactions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, contentTypeXLSX, "barakah-transactions.xlsx", out)
}
