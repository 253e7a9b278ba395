package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that history or cache storage is failing; logs are still served.
	Degraded Status = "degraded"
	// Unhealthy indicates that the log backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	backend Pinger
	db      Pinger
}

// New creates a Service. db can be nil when no database is configured.
func New(backend, db Pinger) *Service {
	return &Service{backend: backend, db: db}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["backend"] = result(s.backend.Ping(ctx))
	if s.db != nil {
		checks["database"] = result(s.db.Ping(ctx))
	}

	status := Healthy
	switch {
	case checks["backend"] == CheckError:
		status = Unhealthy
	case checks["database"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
