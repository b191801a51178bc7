package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker is a dependency /ready checks, in practice the configured archive.
type Checker interface {
	Check(ctx context.Context) error
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Readiness answers 200 {"status":"ready"} when every checker passes within
// timeout, else 503 with the failing checker's error under its name.
// Without checkers the service is always ready: the LLM is never called.
func Readiness(checkers map[string]Checker, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		body := readiness{Status: "ready"}
		status := http.StatusOK
		for name, c := range checkers {
			if body.Checks == nil {
				body.Checks = make(map[string]string, len(checkers))
			}
			if err := c.Check(ctx); err != nil {
				body.Checks[name] = err.Error()
				body.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			body.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Liveness only tells the process is serving.
func Liveness(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}
