package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/corvidlabs/brochure/internal"
)

const healthTimeout = 2 * time.Second

type healthReport struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Store    string `json:"store,omitempty"`
}

func checkDep(ctx context.Context, ping func(context.Context) error) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		return "unavailable", false
	}
	return "ok", true
}

// health is public so load balancers can poll it. Causes are only logged.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok"}
	healthy := true

	var ok bool
	report.Database, ok = checkDep(r.Context(), h.db.Ping)
	if !ok {
		healthy = false
		internal.GetRequestLogger(r).Error("health check: content database unavailable")
	}

	if h.store != nil {
		report.Store, ok = checkDep(r.Context(), h.store.Ping)
		if !ok {
			healthy = false
			internal.GetRequestLogger(r).Error("health check: store unavailable")
		}
	}

	status := http.StatusOK
	if !healthy {
		report.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, r, status, report)
}
