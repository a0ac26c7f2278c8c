package delivery

import "fmt"

// MissingHeaderError is returned when a header required to synthesize the rest of the set is absent.
type MissingHeaderError struct {
	Name string
}

func (m *MissingHeaderError) Error() string {
	return fmt.Sprintf("missing required header %q", m.Name)
}

// Rule identifies the header validation rule that failed.
type Rule string

const (
	// RuleContentType requires content-type to be exactly application/json.
	RuleContentType Rule = "content-type"
	// RuleUserAgent requires user-agent to carry the GitHub-Hookshot/ prefix.
	RuleUserAgent Rule = "user-agent"
	// RuleDelivery requires x-github-delivery to be UUID-shaped.
	RuleDelivery Rule = "x-github-delivery"
	// RuleEvent requires x-github-event to be present and non-empty.
	RuleEvent Rule = "x-github-event"
)

// InvalidHeadersError is returned by Validate and names the rule that rejected the header set.
type InvalidHeadersError struct {
	Rule   Rule
	Value  string
	Reason string
}

func (m *InvalidHeadersError) Error() string {
	return fmt.Sprintf("invalid headers [%s]: %s (got %q)", m.Rule, m.Reason, m.Value)
}
