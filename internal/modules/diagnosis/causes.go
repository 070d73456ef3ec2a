package diagnosis

import (
	"fmt"
	"sort"
	"strings"
)

// Likely-cause candidates are static, auditable data keyed by the DTC system
// prefix. Scoring weights are fixed policy, kept bit-identical across
// releases so the same scan always explains itself the same way.

type causeTemplate struct {
	Title      string
	BaseWeight int
	Hint       string
}

var causesByPrefix = map[byte][]causeTemplate{
	'P': {
		{Title: "Catalytic converter efficiency degradation", BaseWeight: 70, Hint: "Common on higher-mileage powertrains; often preceded by oxygen sensor drift."},
		{Title: "Oxygen sensor failure or slow response", BaseWeight: 66, Hint: "Upstream or downstream O2 sensor readings outside expected switching range."},
		{Title: "Intake or exhaust leak", BaseWeight: 58, Hint: "Unmetered air skews trims; inspect manifold gaskets and exhaust joints."},
		{Title: "Ignition misfire (plugs, coils, wiring)", BaseWeight: 55, Hint: "Worn ignition components are the most frequent powertrain culprit."},
		{Title: "Fuel delivery issue (pump, filter, injectors)", BaseWeight: 50, Hint: "Pressure or injector balance out of spec."},
	},
	'B': {
		{Title: "Airbag or restraint circuit fault", BaseWeight: 68, Hint: "Body codes in the B00xx range frequently trace to seat or clockspring connectors."},
		{Title: "Body control module communication fault", BaseWeight: 60, Hint: "Check BCM grounds and connector corrosion."},
		{Title: "Interior electrical accessory fault", BaseWeight: 52, Hint: "Window, lock, or lighting circuits drawing out of range."},
	},
	'C': {
		{Title: "Wheel speed sensor fault", BaseWeight: 68, Hint: "ABS tone ring damage or sensor gap is the dominant chassis cause."},
		{Title: "ABS hydraulic unit or pump fault", BaseWeight: 58, Hint: "Pump motor circuits failing under load."},
		{Title: "Steering angle or yaw sensor out of calibration", BaseWeight: 52, Hint: "Often after alignment or suspension work."},
	},
	'U': {
		{Title: "CAN bus wiring or termination fault", BaseWeight: 66, Hint: "Lost communication codes usually point to the physical bus first."},
		{Title: "Module power or ground supply fault", BaseWeight: 58, Hint: "A silent module is often an unpowered module."},
		{Title: "Failed control module", BaseWeight: 48, Hint: "Consider only after wiring and supply check out."},
	},
}

var genericCauses = []causeTemplate{
	{Title: "Sensor or wiring fault in the reporting circuit", BaseWeight: 55, Hint: "Non-standard code family; begin with the reporting circuit."},
	{Title: "Control module software fault", BaseWeight: 48, Hint: "Manufacturer-specific logic; check for technical service bulletins."},
	{Title: "Intermittent electrical connection", BaseWeight: 42, Hint: "Vibration-sensitive faults rarely store supporting data."},
}

var severityWeight = map[string]int{
	"critical": 8,
	"high":     6,
	"medium":   3,
	"low":      1,
}

const (
	causeConfidenceMin = 35
	causeConfidenceMax = 95
	maxCauses          = 3
)

var dtcFamilyName = map[byte]string{
	'P': "powertrain",
	'B': "body",
	'C': "chassis",
	'U': "network",
}

type LikelyCause struct {
	Rank       int      `json:"rank"`
	Title      string   `json:"title"`
	Confidence int      `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// RankLikelyCauses produces a deterministic ranked short list of probable
// root causes. Pure function, no I/O.
func RankLikelyCauses(dtcCode, severity string, hasFreezeFrame, hasSensorData bool) []LikelyCause {
	code := NormalizeDTC(dtcCode)

	var prefix byte
	if len(code) > 0 {
		prefix = code[0]
	}
	templates, ok := causesByPrefix[prefix]
	if !ok {
		templates = genericCauses
	}

	contextBoost := 0
	switch {
	case hasFreezeFrame && hasSensorData:
		contextBoost = 8
	case hasFreezeFrame || hasSensorData:
		contextBoost = 5
	}

	sev := strings.ToLower(strings.TrimSpace(severity))
	sevBoost := severityWeight[sev]

	family := dtcFamilyName[prefix]
	if family == "" {
		family = "unrecognized"
	}

	type scored struct {
		tpl   causeTemplate
		score int
	}
	ranked := make([]scored, 0, len(templates))
	for _, tpl := range templates {
		ranked = append(ranked, scored{tpl: tpl, score: tpl.BaseWeight + contextBoost + sevBoost})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].tpl.Title < ranked[j].tpl.Title
	})
	if len(ranked) > maxCauses {
		ranked = ranked[:maxCauses]
	}

	out := make([]LikelyCause, 0, len(ranked))
	for i, r := range ranked {
		evidence := []string{
			fmt.Sprintf("%s belongs to the %s code family", code, family),
		}
		if sev != "" {
			evidence = append(evidence, fmt.Sprintf("reported severity signal: %s", sev))
		} else {
			evidence = append(evidence, "no severity signal reported")
		}
		evidence = append(evidence, r.tpl.Hint)
		switch {
		case hasFreezeFrame && hasSensorData:
			evidence = append(evidence, "freeze frame and live sensor data available for this occurrence")
		case hasFreezeFrame:
			evidence = append(evidence, "freeze frame captured at fault time")
		case hasSensorData:
			evidence = append(evidence, "live sensor snapshot available")
		default:
			evidence = append(evidence, "no supporting capture data; ranking is code-family based")
		}

		out = append(out, LikelyCause{
			Rank:       i + 1,
			Title:      r.tpl.Title,
			Confidence: clampInt(r.score, causeConfidenceMin, causeConfidenceMax),
			Evidence:   evidence,
		})
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
