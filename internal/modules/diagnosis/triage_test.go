package diagnosis

import (
	"testing"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool   { return &v }

func knowledgeRow(code, severity, driveability string, safetyCritical, diyAllowed bool) *types.DtcKnowledge {
	return &types.DtcKnowledge{
		Code:                code,
		DefaultSeverity:     severity,
		DefaultDriveability: driveability,
		SafetyCritical:      safetyCritical,
		DIYAllowed:          diyAllowed,
		SourceVersion:       "v1",
	}
}

func TestResolveTriage_UnmatchedDefaultsConservative(t *testing.T) {
	d := ResolveTriage(TriageInput{DTCCode: "p3abc"}, nil)
	if d.TriageClass != ClassServiceSoon {
		t.Fatalf("expected service_soon, got %q", d.TriageClass)
	}
	if d.Driveability != DriveabilityLimited {
		t.Fatalf("expected limited, got %q", d.Driveability)
	}
	if d.DIYEligible {
		t.Fatalf("unmatched code must not be DIY eligible")
	}
	if d.Confidence != ConfidenceUnmatched {
		t.Fatalf("expected confidence %d, got %d", ConfidenceUnmatched, d.Confidence)
	}
	if d.KnowledgeRef != "unmatched" {
		t.Fatalf("expected knowledge_ref unmatched, got %q", d.KnowledgeRef)
	}
	if d.DTCCode != "P3ABC" {
		t.Fatalf("expected normalized code, got %q", d.DTCCode)
	}
}

func TestResolveTriage_UnmatchedHintKeywords(t *testing.T) {
	cases := []struct {
		hint  string
		class string
		drive string
	}{
		{"CRITICAL failure", ClassServiceNow, DriveabilityLimited},
		{"high", ClassServiceNow, DriveabilityLimited},
		{"severe misfire", ClassServiceNow, DriveabilityLimited},
		{"urgent", ClassServiceNow, DriveabilityLimited},
		{"low priority", ClassSafe, DriveabilityDrivable},
		{"minor", ClassSafe, DriveabilityDrivable},
		{"something else", ClassServiceSoon, DriveabilityLimited},
	}
	for _, tc := range cases {
		d := ResolveTriage(TriageInput{DTCCode: "X9999", SeverityHint: tc.hint}, nil)
		if d.TriageClass != tc.class {
			t.Fatalf("hint %q: expected class %s, got %s", tc.hint, tc.class, d.TriageClass)
		}
		if d.Driveability != tc.drive {
			t.Fatalf("hint %q: expected driveability %s, got %s", tc.hint, tc.drive, d.Driveability)
		}
		if d.Confidence != ConfidenceUnmatched {
			t.Fatalf("hint %q: expected confidence %d, got %d", tc.hint, ConfidenceUnmatched, d.Confidence)
		}
	}
}

func TestResolveTriage_MatchedUnchangedConfidence(t *testing.T) {
	k := knowledgeRow("P0420", ClassServiceSoon, DriveabilityDrivable, false, false)
	d := ResolveTriage(TriageInput{DTCCode: "p0420"}, k)
	if d.TriageClass != ClassServiceSoon || d.Driveability != DriveabilityDrivable {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Confidence != ConfidenceMatched {
		t.Fatalf("expected confidence %d, got %d", ConfidenceMatched, d.Confidence)
	}
	if d.KnowledgeRef != "P0420@v1" {
		t.Fatalf("unexpected knowledge ref %q", d.KnowledgeRef)
	}
}

func TestResolveTriage_HintOnlyEscalates(t *testing.T) {
	k := knowledgeRow("P0420", ClassServiceSoon, DriveabilityDrivable, false, false)

	d := ResolveTriage(TriageInput{DTCCode: "P0420", SeverityHint: "critical"}, k)
	if d.TriageClass != ClassServiceNow {
		t.Fatalf("critical hint should escalate, got %q", d.TriageClass)
	}
	if d.Confidence != ConfidenceAdjusted {
		t.Fatalf("expected adjusted confidence %d, got %d", ConfidenceAdjusted, d.Confidence)
	}
	if !d.Policy.HintApplied {
		t.Fatalf("expected hint recorded in policy decision")
	}

	// A weaker hint never de-escalates.
	d = ResolveTriage(TriageInput{DTCCode: "P0420", SeverityHint: "low"}, k)
	if d.TriageClass != ClassServiceSoon {
		t.Fatalf("low hint must not de-escalate, got %q", d.TriageClass)
	}
	if d.Confidence != ConfidenceMatched {
		t.Fatalf("unchanged class should keep confidence %d, got %d", ConfidenceMatched, d.Confidence)
	}
}

func TestResolveTriage_SafetyCriticalOverridesEverything(t *testing.T) {
	k := knowledgeRow("P0117", ClassServiceNow, DriveabilityDoNotDrive, true, true)
	inputs := []TriageInput{
		{DTCCode: "P0117"},
		{DTCCode: "P0117", SeverityHint: "low"},
		{DTCCode: "P0117", SensorSnapshot: &SensorSnapshot{BatteryVoltage: f64(14.1)}},
		{DTCCode: "P0117", SeverityHint: "minor", SensorSnapshot: &SensorSnapshot{CoolantTempC: f64(130)}},
	}
	for i, in := range inputs {
		d := ResolveTriage(in, k)
		if d.TriageClass != ClassServiceNow {
			t.Fatalf("case %d: expected service_now, got %q", i, d.TriageClass)
		}
		if d.Driveability != DriveabilityDoNotDrive {
			t.Fatalf("case %d: expected do_not_drive, got %q", i, d.Driveability)
		}
		if d.DIYEligible {
			t.Fatalf("case %d: safety-critical must never be DIY eligible", i)
		}
		if !d.Policy.SafetyOverride {
			t.Fatalf("case %d: expected safety override recorded", i)
		}
	}
	// End-to-end scenario: no sensor data, default class already service_now.
	d := ResolveTriage(TriageInput{DTCCode: "P0117"}, k)
	if d.Confidence != 88 {
		t.Fatalf("expected confidence 88, got %d", d.Confidence)
	}
}

func TestResolveTriage_SensorEscalation(t *testing.T) {
	k := knowledgeRow("P0420", ClassServiceSoon, DriveabilityDrivable, false, false)
	d := ResolveTriage(TriageInput{
		DTCCode:        "P0420",
		SensorSnapshot: &SensorSnapshot{CoolantTempC: f64(120)},
	}, k)
	if d.TriageClass != ClassServiceNow {
		t.Fatalf("expected escalation to service_now, got %q", d.TriageClass)
	}
	if d.Driveability != DriveabilityLimited {
		t.Fatalf("expected driveability limited, got %q", d.Driveability)
	}
	if !d.Policy.SensorEscalated || d.Policy.EscalationReason == "" {
		t.Fatalf("expected escalation provenance, got %+v", d.Policy)
	}
	if d.Confidence != ConfidenceAdjusted {
		t.Fatalf("expected confidence %d, got %d", ConfidenceAdjusted, d.Confidence)
	}
}

func TestResolveTriage_SeverityMonotonicity(t *testing.T) {
	k := knowledgeRow("P0442", ClassSafe, DriveabilityDrivable, false, true)
	snapshots := []*SensorSnapshot{
		{CoolantTempC: f64(115)},
		{OilPressure: f64(4)},
		{BatteryVoltage: f64(10.2)},
		{BrakeFluidLow: boolPtr(true)},
	}
	base := ResolveTriage(TriageInput{DTCCode: "P0442"}, k)
	for i, snap := range snapshots {
		d := ResolveTriage(TriageInput{DTCCode: "P0442", SensorSnapshot: snap}, k)
		if severityRank[d.TriageClass] < severityRank[base.TriageClass] {
			t.Fatalf("case %d: escalation reduced urgency: %s < %s", i, d.TriageClass, base.TriageClass)
		}
		if d.TriageClass != ClassServiceNow {
			t.Fatalf("case %d: expected service_now, got %q", i, d.TriageClass)
		}
		if d.DIYEligible {
			t.Fatalf("case %d: escalated finding must not be DIY eligible", i)
		}
	}
}

func TestResolveTriage_SensorEscalationPriorityOrder(t *testing.T) {
	snap := &SensorSnapshot{
		CoolantTempC:   f64(140),
		OilPressure:    f64(2),
		BatteryVoltage: f64(9),
		BrakeFluidLow:  boolPtr(true),
	}
	escalated, reason := evaluateSensors(snap)
	if !escalated {
		t.Fatalf("expected escalation")
	}
	if got, want := reason, "coolant temperature 140 at or above 115"; got != want {
		t.Fatalf("first matching condition must win: got %q want %q", got, want)
	}

	// Oil pressure bounds are exclusive on both sides.
	if ok, _ := evaluateSensors(&SensorSnapshot{OilPressure: f64(0)}); ok {
		t.Fatalf("oil pressure 0 must not escalate")
	}
	if ok, _ := evaluateSensors(&SensorSnapshot{OilPressure: f64(10)}); ok {
		t.Fatalf("oil pressure 10 must not escalate")
	}
	if ok, _ := evaluateSensors(&SensorSnapshot{OilPressure: f64(9.9)}); !ok {
		t.Fatalf("oil pressure 9.9 must escalate")
	}
}

func TestResolveTriage_DIYEligibilityExclusivity(t *testing.T) {
	k := knowledgeRow("P0442", ClassSafe, DriveabilityDrivable, false, true)
	d := ResolveTriage(TriageInput{DTCCode: "P0442"}, k)
	if !d.DIYEligible {
		t.Fatalf("safe diy-allowed code should be DIY eligible")
	}

	// Any escalation away from safe removes eligibility.
	d = ResolveTriage(TriageInput{DTCCode: "P0442", SeverityHint: "high"}, k)
	if d.DIYEligible {
		t.Fatalf("escalated finding must not be DIY eligible")
	}

	noDIY := knowledgeRow("P0442", ClassSafe, DriveabilityDrivable, false, false)
	if d := ResolveTriage(TriageInput{DTCCode: "P0442"}, noDIY); d.DIYEligible {
		t.Fatalf("diy_allowed=false must not be DIY eligible")
	}
}

func TestResolveTriage_Deterministic(t *testing.T) {
	k := knowledgeRow("P0301", ClassServiceNow, DriveabilityLimited, false, false)
	in := TriageInput{DTCCode: "P0301", SeverityHint: "high", SensorSnapshot: &SensorSnapshot{BatteryVoltage: f64(10)}}
	a := ResolveTriage(in, k)
	b := ResolveTriage(in, k)
	if a != b {
		t.Fatalf("expected identical decisions, got %+v vs %+v", a, b)
	}
}

func TestParseSensorSnapshot_KeyVariants(t *testing.T) {
	snap := ParseSensorSnapshot([]byte(`{"coolant_temp_c": 120, "oilPressure": "8.5", "battery_voltage": 12.6, "brakeFluidLow": false, "rpm": 2200}`))
	if snap == nil {
		t.Fatalf("expected snapshot")
	}
	if snap.CoolantTempC == nil || *snap.CoolantTempC != 120 {
		t.Fatalf("coolant: %+v", snap.CoolantTempC)
	}
	if snap.OilPressure == nil || *snap.OilPressure != 8.5 {
		t.Fatalf("oil: %+v", snap.OilPressure)
	}
	if snap.BatteryVoltage == nil || *snap.BatteryVoltage != 12.6 {
		t.Fatalf("battery: %+v", snap.BatteryVoltage)
	}
	if snap.BrakeFluidLow == nil || *snap.BrakeFluidLow {
		t.Fatalf("brake: %+v", snap.BrakeFluidLow)
	}
	if _, ok := snap.Extra["rpm"]; !ok {
		t.Fatalf("unknown fields should land in Extra")
	}
	if ParseSensorSnapshot(nil) != nil || ParseSensorSnapshot([]byte("null")) != nil {
		t.Fatalf("empty blobs should yield nil")
	}
}

func TestValidDTCCode(t *testing.T) {
	valid := []string{"P0420", "U0100", "ABC", "P0420-01", "1234567890123456"}
	for _, c := range valid {
		if !ValidDTCCode(c) {
			t.Fatalf("expected %q valid", c)
		}
	}
	invalid := []string{"", "AB", "P 0420", "p0420!", "12345678901234567"}
	for _, c := range invalid {
		if ValidDTCCode(c) {
			t.Fatalf("expected %q invalid", c)
		}
	}
}
