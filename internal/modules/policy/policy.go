package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// The filter is the last line of defense before recommendation text is
// persisted. It never fails a request: disallowed claims are removed by
// substituting a safe fallback, not by rejecting the draft.

// MandatoryDirective is the exact phrase required at the top of next steps
// for high-urgency findings.
const MandatoryDirective = "seek professional service"

const (
	FallbackTitle     = "Further inspection recommended"
	FallbackSummary   = "A definitive assessment needs a hands-on inspection."
	FallbackRationale = "The generated guidance could not be shown as written. Have a qualified technician confirm the diagnosis before committing to a repair."

	defaultDisclaimer = "This guidance is informational and is not a warranty, legal advice, or a guarantee of any repair outcome."
)

type rule struct {
	label   string
	pattern *regexp.Regexp
}

// Disallowed claim patterns, grouped in four categories. Declarative on
// purpose: auditing the filter means reading this table.
var blockedClaimRules = []rule{
	{label: "warranty_guarantee", pattern: regexp.MustCompile(`(?i)\b(under warranty|warranty (covers|will cover)|fully covered|covered at no cost)\b`)},
	{label: "legal_certainty", pattern: regexp.MustCompile(`(?i)\b(legally (binding|required|entitled)|guaranteed by law|no legal risk|court will)\b`)},
	{label: "outcome_guarantee", pattern: regexp.MustCompile(`(?i)(\bguarantee[ds]?\b|100\s*%|\bdefinitely (fix|resolve|solve)\b|\bnever fail\b|\bpermanent fix\b)`)},
	{label: "cost_certainty", pattern: regexp.MustCompile(`(?i)\b(costs? exactly|exact (price|cost)|final price|no (additional|hidden) (cost|costs|fees)|fixed total)\b`)},
}

var highUrgencySet = map[string]struct{}{
	"service_now":  {},
	"do_not_drive": {},
	"urgent":       {},
	"critical":     {},
}

type Draft struct {
	Title       string
	Summary     string
	Rationale   string
	NextSteps   []string
	Limitations []string
}

type Result struct {
	Blocked           bool     `json:"blocked"`
	BlockedReasons    []string `json:"blocked_reasons,omitempty"`
	DirectiveInjected bool     `json:"directive_injected"`
	SanitizedTitle    string   `json:"sanitized_title"`
	Summary           string   `json:"summary"`
	Rationale         string   `json:"rationale"`
	NextSteps         []string `json:"next_steps"`
	Limitations       []string `json:"limitations"`
}

func matchRules(text string, seen map[string]struct{}, reasons *[]string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	for _, r := range blockedClaimRules {
		if _, dup := seen[r.label]; dup {
			continue
		}
		if r.pattern.MatchString(text) {
			seen[r.label] = struct{}{}
			*reasons = append(*reasons, r.label)
		}
	}
}

func isHighUrgency(urgency string) bool {
	_, ok := highUrgencySet[strings.ToLower(strings.TrimSpace(urgency))]
	return ok
}

func containsDirective(steps []string) bool {
	for _, s := range steps {
		if strings.Contains(strings.ToLower(s), MandatoryDirective) {
			return true
		}
	}
	return false
}

// Apply scans a draft recommendation and returns a safe-to-persist result.
// It must run on every path that produces recommendation text, generated or
// human-authored.
func Apply(d Draft, urgency string, confidence int) Result {
	seen := map[string]struct{}{}
	var reasons []string

	matchRules(d.Title, seen, &reasons)
	matchRules(d.Summary, seen, &reasons)
	matchRules(d.Rationale, seen, &reasons)
	for _, step := range d.NextSteps {
		matchRules(step, seen, &reasons)
	}

	out := Result{
		SanitizedTitle: d.Title,
		Summary:        d.Summary,
		Rationale:      d.Rationale,
		NextSteps:      append([]string(nil), d.NextSteps...),
		Limitations:    append([]string(nil), d.Limitations...),
	}

	if len(reasons) > 0 {
		out.Blocked = true
		out.BlockedReasons = reasons
		out.SanitizedTitle = FallbackTitle
		out.Summary = FallbackSummary
		out.Rationale = FallbackRationale
		out.NextSteps = []string{
			MandatoryDirective,
			"Have a qualified technician inspect the vehicle before committing to a repair",
		}
	}

	if isHighUrgency(urgency) && !containsDirective(out.NextSteps) {
		out.NextSteps = append([]string{MandatoryDirective}, out.NextSteps...)
		out.DirectiveInjected = true
	}

	if len(out.Limitations) == 0 {
		out.Limitations = []string{defaultDisclaimer}
	}
	if !hasConfidenceDisclosure(out.Limitations) {
		out.Limitations = append(out.Limitations, fmt.Sprintf("Confidence in this assessment is %d out of 100.", confidence))
	}

	return out
}

func hasConfidenceDisclosure(limitations []string) bool {
	for _, l := range limitations {
		if strings.Contains(strings.ToLower(l), "confidence") {
			return true
		}
	}
	return false
}
