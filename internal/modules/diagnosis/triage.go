package diagnosis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/drivewise/drivewise-backend/internal/types"
)

const (
	ClassSafe        = "safe"
	ClassServiceSoon = "service_soon"
	ClassServiceNow  = "service_now"

	DriveabilityDrivable   = "drivable"
	DriveabilityLimited    = "limited"
	DriveabilityDoNotDrive = "do_not_drive"
)

// Confidence values fixed for behavioral compatibility with the triage
// policy; not tunables.
const (
	ConfidenceMatched   = 88
	ConfidenceAdjusted  = 76
	ConfidenceUnmatched = 35
)

// Sensor escalation thresholds.
const (
	coolantTempMax    = 115.0
	oilPressureMin    = 0.0
	oilPressureMax    = 10.0
	batteryVoltageMin = 11.0
)

var dtcCodeRe = regexp.MustCompile(`^[A-Za-z0-9-]{3,16}$`)

var severityRank = map[string]int{
	ClassSafe:        0,
	ClassServiceSoon: 1,
	ClassServiceNow:  2,
}

var driveabilityRank = map[string]int{
	DriveabilityDrivable:   0,
	DriveabilityLimited:    1,
	DriveabilityDoNotDrive: 2,
}

// NormalizeDTC uppercases and trims a raw code.
func NormalizeDTC(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidDTCCode reports whether a normalized code is well-formed.
func ValidDTCCode(code string) bool {
	return dtcCodeRe.MatchString(code)
}

// SensorSnapshot is the typed boundary for the loosely shaped sensor blob a
// scanner uploads. Unknown fields are preserved in Extra.
type SensorSnapshot struct {
	CoolantTempC   *float64
	OilPressure    *float64
	BatteryVoltage *float64
	BrakeFluidLow  *bool
	Extra          map[string]json.RawMessage
}

func (s *SensorSnapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		switch normalizeFieldKey(k) {
		case "coolanttempc", "coolanttemp":
			s.CoolantTempC = parseFloatField(v)
		case "oilpressure", "oilpressurepsi":
			s.OilPressure = parseFloatField(v)
		case "batteryvoltage":
			s.BatteryVoltage = parseFloatField(v)
		case "brakefluidlow":
			s.BrakeFluidLow = parseBoolField(v)
		default:
			if s.Extra == nil {
				s.Extra = map[string]json.RawMessage{}
			}
			s.Extra[k] = v
		}
	}
	return nil
}

func normalizeFieldKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "")
}

func parseFloatField(raw json.RawMessage) *float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &parsed); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseBoolField(raw json.RawMessage) *bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	return nil
}

// ParseSensorSnapshot decodes a raw jsonb blob; a nil/empty blob yields nil.
func ParseSensorSnapshot(raw []byte) *SensorSnapshot {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var snap SensorSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil
	}
	return &snap
}

type TriageInput struct {
	DTCCode        string
	SeverityHint   string
	FreezeFrame    json.RawMessage
	SensorSnapshot *SensorSnapshot
}

// PolicyDecision records which inputs drove the final class, for audit.
type PolicyDecision struct {
	HintApplied      bool   `json:"hint_applied"`
	HintClass        string `json:"hint_class,omitempty"`
	SensorEscalated  bool   `json:"sensor_escalated"`
	EscalationReason string `json:"escalation_reason,omitempty"`
	SafetyOverride   bool   `json:"safety_override"`
}

type TriageDecision struct {
	DTCCode      string         `json:"dtc_code"`
	TriageClass  string         `json:"triage_class"`
	Driveability string         `json:"driveability"`
	DIYEligible  bool           `json:"diy_eligible"`
	Confidence   int            `json:"confidence"`
	Reason       string         `json:"reason"`
	KnowledgeRef string         `json:"knowledge_ref"`
	Policy       PolicyDecision `json:"policy_decision"`
}

// classFromHint maps a free-text severity hint onto a triage class. The
// conservative default for an unrecognized hint is service_soon.
func classFromHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case strings.Contains(h, "critical"),
		strings.Contains(h, "high"),
		strings.Contains(h, "severe"),
		strings.Contains(h, "urgent"):
		return ClassServiceNow
	case strings.Contains(h, "low"), strings.Contains(h, "minor"):
		return ClassSafe
	default:
		return ClassServiceSoon
	}
}

func maxClass(a, b string) string {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

func maxDriveability(a, b string) string {
	if driveabilityRank[b] > driveabilityRank[a] {
		return b
	}
	return a
}

// evaluateSensors checks the snapshot against the escalation conditions in
// priority order; the first match wins.
func evaluateSensors(snap *SensorSnapshot) (bool, string) {
	if snap == nil {
		return false, ""
	}
	if snap.CoolantTempC != nil && *snap.CoolantTempC >= coolantTempMax {
		return true, fmt.Sprintf("coolant temperature %.0f at or above %.0f", *snap.CoolantTempC, coolantTempMax)
	}
	if snap.OilPressure != nil && *snap.OilPressure > oilPressureMin && *snap.OilPressure < oilPressureMax {
		return true, fmt.Sprintf("oil pressure %.1f below safe minimum %.0f", *snap.OilPressure, oilPressureMax)
	}
	if snap.BatteryVoltage != nil && *snap.BatteryVoltage < batteryVoltageMin {
		return true, fmt.Sprintf("battery voltage %.1f below %.0f", *snap.BatteryVoltage, batteryVoltageMin)
	}
	if snap.BrakeFluidLow != nil && *snap.BrakeFluidLow {
		return true, "brake fluid reported low"
	}
	return false, ""
}

// ResolveTriage converts a fault code plus optional context into a final
// triage decision. Pure: identical inputs always produce identical output.
// A knowledge miss (k == nil) still yields a decision, never an error.
func ResolveTriage(in TriageInput, k *types.DtcKnowledge) TriageDecision {
	code := NormalizeDTC(in.DTCCode)
	escalated, escalationReason := evaluateSensors(in.SensorSnapshot)

	decision := TriageDecision{DTCCode: code}

	if k == nil {
		class := ClassServiceSoon
		reason := fmt.Sprintf("no knowledge entry for %s, conservative default", code)
		if strings.TrimSpace(in.SeverityHint) != "" {
			class = classFromHint(in.SeverityHint)
			decision.Policy.HintApplied = true
			decision.Policy.HintClass = class
			reason = fmt.Sprintf("no knowledge entry for %s, class derived from severity hint %q", code, strings.TrimSpace(in.SeverityHint))
		}
		if escalated {
			class = maxClass(class, ClassServiceNow)
			decision.Policy.SensorEscalated = true
			decision.Policy.EscalationReason = escalationReason
			reason = reason + "; escalated: " + escalationReason
		}
		driveability := DriveabilityLimited
		if class == ClassSafe {
			driveability = DriveabilityDrivable
		}
		decision.TriageClass = class
		decision.Driveability = driveability
		decision.Confidence = ConfidenceUnmatched
		decision.Reason = reason
		decision.KnowledgeRef = "unmatched"
		return decision
	}

	decision.KnowledgeRef = fmt.Sprintf("%s@%s", k.Code, k.SourceVersion)
	class := k.DefaultSeverity
	driveability := k.DefaultDriveability
	reason := fmt.Sprintf("%s matched knowledge entry (%s)", code, k.DefaultSeverity)

	if strings.TrimSpace(in.SeverityHint) != "" {
		hintClass := classFromHint(in.SeverityHint)
		decision.Policy.HintApplied = true
		decision.Policy.HintClass = hintClass
		if severityRank[hintClass] > severityRank[class] {
			class = hintClass
			reason = reason + fmt.Sprintf("; severity hint raised class to %s", hintClass)
		}
	}

	if k.SafetyCritical {
		// Unconditional override, evaluated before and regardless of sensor
		// escalation.
		class = ClassServiceNow
		driveability = DriveabilityDoNotDrive
		decision.Policy.SafetyOverride = true
		reason = reason + "; safety-critical code, do not drive"
	} else if escalated {
		class = maxClass(class, ClassServiceNow)
		driveability = maxDriveability(driveability, DriveabilityLimited)
		decision.Policy.SensorEscalated = true
		decision.Policy.EscalationReason = escalationReason
		reason = reason + "; escalated: " + escalationReason
	}

	decision.TriageClass = class
	decision.Driveability = driveability
	decision.DIYEligible = k.DIYAllowed && class == ClassSafe && !k.SafetyCritical
	if class == k.DefaultSeverity {
		decision.Confidence = ConfidenceMatched
	} else {
		decision.Confidence = ConfidenceAdjusted
	}
	decision.Reason = reason
	return decision
}
