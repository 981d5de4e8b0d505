// internal/server/health.go
package server

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the document store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// named is implemented by stores that can report their database name.
type named interface {
	DatabaseName() string
}

const pingTimeout = 3 * time.Second

type componentStatus struct {
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type healthResponse struct {
	Status    string                     `json:"status"`
	Timestamp string                     `json:"timestamp"`
	Services  map[string]componentStatus `json:"services"`
}

func checkDatabase(ctx context.Context, store Pinger) componentStatus {
	if store == nil {
		return componentStatus{Status: "down", Details: map[string]interface{}{"message": "database not configured"}}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		return componentStatus{Status: "down", Details: map[string]interface{}{"message": err.Error()}}
	}
	st := componentStatus{Status: "up"}
	if n, ok := store.(named); ok {
		st.Details = map[string]interface{}{"name": n.DatabaseName()}
	}
	return st
}

func health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db := checkDatabase(r.Context(), store)
		resp := healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  map[string]componentStatus{"database": db},
		}
		status := http.StatusOK
		if db.Status != "up" {
			resp.Status = "error"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func databaseHealth(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db := checkDatabase(r.Context(), store)
		status := http.StatusOK
		if db.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, db)
	}
}
