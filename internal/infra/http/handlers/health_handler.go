package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/xavierca1/funnel-leads/internal/log"
)

// Pinger é qualquer dependência que sabe dizer se está de pé.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	Dependencies map[string]Pinger
	StartTime    time.Time
	Version      string
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler recebe as dependências configuradas; nil vira "not configured".
func NewHealthHandler(version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		Dependencies: deps,
		StartTime:    time.Now(),
		Version:      version,
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.Dependencies))
	status := "healthy"

	for name, p := range h.Dependencies {
		if p == nil {
			deps[name] = "not configured"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			log.WithError(err).WithField("dependency", name).Warn("⚠️ health check falhou")
			deps[name] = "unhealthy"
			if ExposeErrorDetail {
				deps[name] += ": " + err.Error()
			}
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	if status == "degraded" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
