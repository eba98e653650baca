package handler

import (
	"io"
	"net/http"

	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/service"
	"github.com/gorilla/mux"
)

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.Tasks(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var t models.Task
	if !decode(w, r, &t) {
		return
	}
	created, err := h.svc.CreateTask(r.Context(), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var p service.TaskPatch
	if !decode(w, r, &p) {
		return
	}
	updated, err := h.svc.UpdateTask(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	task, err := h.svc.AddSubtask(r.Context(), mux.Vars(r)["id"], req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	task, err := h.svc.ToggleSubtask(r.Context(), vars["id"], vars["subtaskID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	task, err := h.svc.DeleteSubtask(r.Context(), vars["id"], vars["subtaskID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	apts, err := h.svc.Appointments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apts)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var a models.Appointment
	if !decode(w, r, &a) {
		return
	}
	created, err := h.svc.CreateAppointment(r.Context(), a)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var a models.Appointment
	if !decode(w, r, &a) {
		return
	}
	updated, err := h.svc.UpdateAppointment(r.Context(), mux.Vars(r)["id"], a)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAppointment(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.svc.Locations(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var l models.Location
	if !decode(w, r, &l) {
		return
	}
	created, err := h.svc.CreateLocation(r.Context(), l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var l models.Location
	if !decode(w, r, &l) {
		return
	}
	updated, err := h.svc.UpdateLocation(r.Context(), mux.Vars(r)["id"], l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLocation(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportLocations downloads the saved locations as GPX
func (h *Handler) ExportLocations(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ExportLocations(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="barakah-locations.gpx"`)
	w.Write(out)
}

func (h *Handler) ImportLocations(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArchiveBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read GPX")
		return
	}
	added, err := h.svc.ImportLocations(r.Context(), raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}
