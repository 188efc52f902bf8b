package handler

import (
	"net/http"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/gorilla/mux"
)

// timeParam разбирает необязательный RFC3339-параметр запроса
func timeParam(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, domain.NewInvalidInputError("%s must be an RFC3339 timestamp", name)
	}
	return &t, nil
}

func requiredTimeParam(r *http.Request, name string) (time.Time, error) {
	t, err := timeParam(r, name)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, domain.NewInvalidInputError("%s parameter is required", name)
	}
	return *t, nil
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}
