package health

import (
	"encoding/json"
	"net/http"
	"time"
)

type checkJSON struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type reportJSON struct {
	Status    Status               `json:"status"`
	Timestamp string               `json:"timestamp"`
	Checks    map[string]checkJSON `json:"checks"`
}

// Handler serves the aggregated report as JSON. Healthy and degraded
// answer 200; unhealthy answers 503.
func Handler(agg *Aggregator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := agg.CheckAll(r.Context())

		body := reportJSON{
			Status:    report.Status,
			Timestamp: report.Timestamp.UTC().Format(time.RFC3339),
			Checks:    make(map[string]checkJSON, len(report.Checks)),
		}
		for name, res := range report.Checks {
			c := checkJSON{
				Status:   res.Status,
				Message:  res.Message,
				Duration: res.Duration.String(),
				Details:  res.Details,
			}
			if res.Err != nil {
				c.Error = res.Err.Error()
			}
			body.Checks[name] = c
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode(report.Status))
		_ = json.NewEncoder(w).Encode(body)
	})
}

// LivenessHandler answers 200 as long as the process serves HTTP.
func LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
}

func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
