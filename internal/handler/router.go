package handler

import (
	"net/http"

	"github.com/Dan9191/barakah/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every route. events serves the WebSocket feed.
// CORS wraps the router so preflight requests never reach route matching;
// only allowedOrigins are granted cross-origin access.
func NewRouter(h *Handler, verifier middleware.TokenVerifier, events http.Handler, allowedOrigins []string, log *logrus.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(verifier, log), middleware.DevicePosition)

	authRouter.HandleFunc("/logout", h.Logout).Methods("POST")
	authRouter.HandleFunc("/me", h.Me).Methods("GET")
	authRouter.HandleFunc("/command", h.Command).Methods("POST")
	authRouter.HandleFunc("/command/pending/{id}", h.PendingCommand).Methods("GET")
	authRouter.HandleFunc("/parse", h.Parse).Methods("POST")

	authRouter.HandleFunc("/sync", h.Sync).Methods("POST")
	authRouter.HandleFunc("/sync/status", h.SyncStatus).Methods("GET")
	authRouter.HandleFunc("/pull", h.Pull).Methods("POST")

	authRouter.HandleFunc("/finances", h.Finances).Methods("GET")
	authRouter.HandleFunc("/finances/transactions.xlsx", h.ExportTransactions).Methods("GET")
	authRouter.HandleFunc("/exchange-rate", h.ExchangeRate).Methods("GET")
	authRouter.HandleFunc("/exchange-rate/refresh", h.RefreshExchangeRate).Methods("POST")

	authRouter.HandleFunc("/prayer-times", h.PrayerTimes).Methods("GET")
	authRouter.HandleFunc("/prayer-times/export.ics", h.ExportPrayerTimesICS).Methods("GET")
	authRouter.HandleFunc("/prayer-times/refresh", h.RefreshPrayerTimes).Methods("POST")

	authRouter.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	authRouter.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	authRouter.HandleFunc("/tasks/{id}", h.UpdateTask).Methods("PATCH")
	authRouter.HandleFunc("/tasks/{id}", h.DeleteTask).Methods("DELETE")
	authRouter.HandleFunc("/tasks/{id}/subtasks", h.AddSubtask).Methods("POST")
	authRouter.HandleFunc("/tasks/{id}/subtasks/{subtaskID}/toggle", h.ToggleSubtask).Methods("POST")
	authRouter.HandleFunc("/tasks/{id}/subtasks/{subtaskID}", h.DeleteSubtask).Methods("DELETE")

	authRouter.HandleFunc("/appointments/export.ics", h.ExportAppointmentsICS).Methods("GET")
	authRouter.HandleFunc("/appointments/export.xlsx", h.ExportAppointmentsXLSX).Methods("GET")
	authRouter.HandleFunc("/appointments", h.ListAppointments).Methods("GET")
	authRouter.HandleFunc("/appointments", h.CreateAppointment).Methods("POST")
	authRouter.HandleFunc("/appointments/{id}", h.UpdateAppointment).Methods("PUT")
	authRouter.HandleFunc("/appointments/{id}", h.DeleteAppointment).Methods("DELETE")

	authRouter.HandleFunc("/locations/export.gpx", h.ExportLocations).Methods("GET")
	authRouter.HandleFunc("/locations/import.gpx", h.ImportLocations).Methods("POST")
	authRouter.HandleFunc("/locations", h.ListLocations).Methods("GET")
	authRouter.HandleFunc("/locations", h.CreateLocation).Methods("POST")
	authRouter.HandleFunc("/locations/{id}", h.UpdateLocation).Methods("PUT")
	authRouter.HandleFunc("/locations/{id}", h.DeleteLocation).Methods("DELETE")

	authRouter.HandleFunc("/backup", h.Backup).Methods("GET")
	authRouter.HandleFunc("/restore", h.Restore).Methods("POST")

	if events != nil {
		authRouter.Handle("/events", events).Methods("GET")
	}
	return middleware.CORS(allowedOrigins)(r)
}
