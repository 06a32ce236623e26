package checks

import (
	"sort"
	"time"

	"github.com/raven-betanet/classinspect/internal/inspect"
)

// HeaderCheck defines the interface that all header checks must implement
type HeaderCheck interface {
	// ID returns the unique identifier for this check (e.g., "check-1-magic-number")
	ID() string

	// Description returns a short description of what this check validates
	Description() string

	// Execute runs the check against the decoded headers of one inspection
	Execute(results []inspect.Result) CheckResult
}

// CheckStatus represents the possible outcomes of a check
type CheckStatus string

const (
	StatusPass  CheckStatus = "pass"
	StatusFail  CheckStatus = "fail"
	StatusSkip  CheckStatus = "skip"
	StatusError CheckStatus = "error"
)

// CheckResult contains the outcome of a check execution
type CheckResult struct {
	ID          string                 `json:"id" yaml:"id"`
	Description string                 `json:"description" yaml:"description"`
	Status      CheckStatus            `json:"status" yaml:"status"`
	Details     string                 `json:"details,omitempty" yaml:"details,omitempty"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// CheckRegistry manages a collection of checks
type CheckRegistry struct {
	checks map[string]HeaderCheck
}

// NewCheckRegistry creates a new check registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{
		checks: make(map[string]HeaderCheck),
	}
}

// Register adds a check to the registry, replacing any check with the same ID
func (r *CheckRegistry) Register(check HeaderCheck) {
	r.checks[check.ID()] = check
}

// Get retrieves a check by ID
func (r *CheckRegistry) Get(id string) (HeaderCheck, bool) {
	check, exists := r.checks[id]
	return check, exists
}

// List returns all registered checks ordered by ID
func (r *CheckRegistry) List() []HeaderCheck {
	checks := make([]HeaderCheck, 0, len(r.checks))
	for _, check := range r.checks {
		checks = append(checks, check)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].ID() < checks[j].ID() })
	return checks
}

// CheckRunner executes checks
type CheckRunner struct {
	registry *CheckRegistry
	skip     map[string]bool
}

// NewCheckRunner creates a new check runner. Checks whose IDs appear in
// skip are reported as skipped without running.
func NewCheckRunner(registry *CheckRegistry, skip ...string) *CheckRunner {
	skipped := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipped[id] = true
	}
	return &CheckRunner{
		registry: registry,
		skip:     skipped,
	}
}

// CheckReport contains the results of running multiple checks
type CheckReport struct {
	Source  string        `json:"source" yaml:"source"`
	Results []CheckResult `json:"results" yaml:"results"`
	Summary CheckSummary  `json:"summary" yaml:"summary"`
}

// CheckSummary contains summary statistics for a check report
type CheckSummary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Errors  int `json:"errors" yaml:"errors"`
}

// Passed reports whether no check failed or errored
func (r *CheckReport) Passed() bool {
	return r.Summary.Failed == 0 && r.Summary.Errors == 0
}

// RunAll executes all registered checks against the results for source
func (r *CheckRunner) RunAll(source string, results []inspect.Result) *CheckReport {
	checks := r.registry.List()
	out := make([]CheckResult, 0, len(checks))

	for _, check := range checks {
		out = append(out, r.run(check, results))
	}

	return &CheckReport{
		Source:  source,
		Results: out,
		Summary: calculateSummary(out),
	}
}

// RunSelected executes specific checks by ID; unknown IDs are ignored
func (r *CheckRunner) RunSelected(source string, results []inspect.Result, checkIDs []string) *CheckReport {
	out := make([]CheckResult, 0, len(checkIDs))

	for _, id := range checkIDs {
		check, exists := r.registry.Get(id)
		if !exists {
			continue
		}
		out = append(out, r.run(check, results))
	}

	return &CheckReport{
		Source:  source,
		Results: out,
		Summary: calculateSummary(out),
	}
}

func (r *CheckRunner) run(check HeaderCheck, results []inspect.Result) CheckResult {
	if r.skip[check.ID()] {
		return CheckResult{
			ID:          check.ID(),
			Description: check.Description(),
			Status:      StatusSkip,
			Details:     "Skipped by configuration",
		}
	}

	start := time.Now()
	result := check.Execute(results)
	result.Duration = time.Since(start)
	return result
}

// calculateSummary calculates summary statistics from check results
func calculateSummary(results []CheckResult) CheckSummary {
	summary := CheckSummary{Total: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failed++
		case StatusSkip:
			summary.Skipped++
		case StatusError:
			summary.Errors++
		}
	}

	return summary
}
