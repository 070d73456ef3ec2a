package diagnosis

import (
	"reflect"
	"testing"
)

func TestRankLikelyCauses_DeterministicAndBounded(t *testing.T) {
	a := RankLikelyCauses("P0420", "high", true, true)
	b := RankLikelyCauses("P0420", "high", true, true)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input must yield identical output:\n%v\n%v", a, b)
	}
	if len(a) == 0 || len(a) > 3 {
		t.Fatalf("expected 1..3 causes, got %d", len(a))
	}
	for i, c := range a {
		if c.Rank != i+1 {
			t.Fatalf("ranks must be contiguous 1..N, got %d at %d", c.Rank, i)
		}
		if c.Confidence < 35 || c.Confidence > 95 {
			t.Fatalf("confidence out of [35,95]: %d", c.Confidence)
		}
		if len(c.Evidence) == 0 {
			t.Fatalf("every cause carries evidence")
		}
	}
}

func TestRankLikelyCauses_PrefixFamilies(t *testing.T) {
	pTop := RankLikelyCauses("P0420", "", false, false)[0].Title
	cTop := RankLikelyCauses("C1234", "", false, false)[0].Title
	uTop := RankLikelyCauses("U0100", "", false, false)[0].Title
	if pTop == cTop || cTop == uTop {
		t.Fatalf("prefix families should select different candidate tables: %q %q %q", pTop, cTop, uTop)
	}
}

func TestRankLikelyCauses_UnknownPrefixFallsBack(t *testing.T) {
	out := RankLikelyCauses("X9999", "", false, false)
	if len(out) != 3 {
		t.Fatalf("generic fallback list has three items, got %d", len(out))
	}
	if out[0].Title != "Sensor or wiring fault in the reporting circuit" {
		t.Fatalf("unexpected top generic cause: %q", out[0].Title)
	}
}

func TestRankLikelyCauses_ContextAndSeverityBoost(t *testing.T) {
	none := RankLikelyCauses("P0420", "", false, false)
	one := RankLikelyCauses("P0420", "", true, false)
	both := RankLikelyCauses("P0420", "critical", true, true)

	if one[0].Confidence != none[0].Confidence+5 {
		t.Fatalf("single context source boosts by 5: %d vs %d", one[0].Confidence, none[0].Confidence)
	}
	// both contexts (8) plus critical severity (8)
	if both[0].Confidence != none[0].Confidence+16 {
		t.Fatalf("expected +16 boost, got %d vs %d", both[0].Confidence, none[0].Confidence)
	}
}

func TestRankLikelyCauses_SeverityWeights(t *testing.T) {
	base := RankLikelyCauses("P0300", "", false, false)[0].Confidence
	cases := map[string]int{
		"critical": 8,
		"HIGH":     6,
		"medium":   3,
		"low":      1,
		"unknown":  0,
	}
	for sev, want := range cases {
		got := RankLikelyCauses("P0300", sev, false, false)[0].Confidence
		if got != base+want {
			t.Fatalf("severity %q: expected %d, got %d", sev, base+want, got)
		}
	}
}

func TestClampInt(t *testing.T) {
	if clampInt(120, 35, 95) != 95 {
		t.Fatalf("upper clamp failed")
	}
	if clampInt(10, 35, 95) != 35 {
		t.Fatalf("lower clamp failed")
	}
	if clampInt(60, 35, 95) != 60 {
		t.Fatalf("in-range value must pass through")
	}
}
