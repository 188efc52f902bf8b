package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/sirupsen/logrus"
)

type sessionKey struct{}

// Authenticate проверяет bearer-токен и кладет сессию в контекст запроса
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.auth.ParseHeader(r.Header.Get("Authorization"))
		if err != nil {
			h.handleError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) domain.Session {
	sess, _ := r.Context().Value(sessionKey{}).(domain.Session)
	return sess
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests пишет метод, путь, статус и длительность каждого запроса
func (h *Handler) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	})
}
