package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
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
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks across the search store and the
// embedding providers of each corpus.
type Service struct {
	db        DBPinger
	embedders map[string]EmbeddingChecker
}

// New creates a Service. embedders maps corpus name to its provider checker
// and can be empty.
func New(db DBPinger, embedders map[string]EmbeddingChecker) *Service {
	return &Service{db: db, embedders: embedders}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	for name, checker := range s.embedders {
		key := "embedding:" + name
		if err := checker.HealthCheck(ctx); err != nil {
			checks[key] = CheckError
		} else {
			checks[key] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
