package usecase

import (
	"context"
	"time"

	"go-placement-portal/internal/domain"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type healthUsecase struct {
	checks map[string]Pinger
}

// NewHealthUsecase takes named checks; a nil check reports "not_configured".
func NewHealthUsecase(checks map[string]Pinger) domain.HealthUsecase {
	return &healthUsecase{checks: checks}
}

func (u *healthUsecase) Check(ctx context.Context) *domain.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := &domain.HealthStatus{Status: "ok", Services: make(map[string]string, len(u.checks))}
	for name, ping := range u.checks {
		switch {
		case ping == nil:
			status.Services[name] = "not_configured"
		case ping(ctx) != nil:
			status.Services[name] = "unavailable"
			status.Status = "degraded"
		default:
			status.Services[name] = "ok"
		}
	}
	return status
}
