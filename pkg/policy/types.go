package policy

// Severity classifies how a violation affects the run.
type Severity string

const (
	// SeverityError blocks the run.
	SeverityError Severity = "error"

	// SeverityWarning is reported but does not block.
	SeverityWarning Severity = "warning"
)

// Policy is one named Rego policy. The Rego module must expose a
// `deny contains violation if { ... }` rule set; each violation is an object
// with "message" and "severity" keys.
type Policy struct {
	// Name identifies the policy in reports.
	Name string `json:"name"`

	// Description explains what the policy enforces.
	Description string `json:"description,omitempty"`

	// Rego is the policy source.
	Rego string `json:"rego"`
}

// Violation is one policy finding against the manifest.
type Violation struct {
	// Policy names the policy that produced the finding.
	Policy string `json:"policy"`

	// Severity is the finding's severity.
	Severity Severity `json:"severity"`

	// Message is the human-readable finding.
	Message string `json:"message"`
}

// Result is the outcome of evaluating all loaded policies.
type Result struct {
	// Allowed is false when any error-severity violation was found.
	Allowed bool `json:"allowed"`

	// Violations are the findings, all severities.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings report policies that failed to evaluate.
	Warnings []string `json:"warnings,omitempty"`
}
