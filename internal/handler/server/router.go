package server

import (
	"net/http"

	"github.com/bagdasarian/time-tracker/internal/handler"
	"github.com/gorilla/mux"
)

func SetupRoutes(h *handler.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.LogRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.Authenticate)

	api.HandleFunc("/session/open", h.OpenSession).Methods(http.MethodPost)
	api.HandleFunc("/session/close", h.CloseSession).Methods(http.MethodPost)
	api.HandleFunc("/session/view", h.GetView).Methods(http.MethodGet)
	api.HandleFunc("/session/refresh", h.RefreshView).Methods(http.MethodPost)

	api.HandleFunc("/tracker/start", h.StartTracking).Methods(http.MethodPost)
	api.HandleFunc("/tracker/stop", h.StopTracking).Methods(http.MethodPost)
	api.HandleFunc("/tracker/active", h.GetActiveEntry).Methods(http.MethodGet)

	api.HandleFunc("/entries", h.ListEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries/total", h.TotalInRange).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", h.UpdateEntry).Methods(http.MethodPatch)
	api.HandleFunc("/entries/{id}", h.DeleteEntry).Methods(http.MethodDelete)

	api.HandleFunc("/projects", h.ListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", h.CreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", h.GetProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", h.UpdateProject).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}", h.DeleteProject).Methods(http.MethodDelete)

	api.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", h.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", h.UpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}", h.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/complete", h.CompleteTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/progress", h.GetTaskProgress).Methods(http.MethodGet)

	api.HandleFunc("/reports", h.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/export", h.ExportReport).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", h.GetUnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.MarkAllNotificationsRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}", h.DeleteNotification).Methods(http.MethodDelete)

	return r
}
