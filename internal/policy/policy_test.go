package policy

import (
	"strings"
	"testing"
)

func TestToolAnswersTrustedAboveSanityFloor(t *testing.T) {
	// Solver confidence is irrelevant on the tool path.
	d := Decide(0.0, 0.51, ProvenanceTool, false, "")
	if d.NeedsHITL {
		t.Fatalf("tool answer above sanity floor must release: %+v", d)
	}
}

func TestToolAnswersHaltOnSanityFailure(t *testing.T) {
	d := Decide(1.0, 0.5, ProvenanceTool, true, "magnitude out of range")
	if !d.NeedsHITL {
		t.Fatal("verifier at the floor must halt, comparison is strict")
	}
	if !strings.Contains(d.Reason, "Sanity Check Failed") {
		t.Fatalf("reason = %q", d.Reason)
	}
	if !strings.Contains(d.Reason, "magnitude out of range") {
		t.Fatalf("critique must be carried into the reason: %q", d.Reason)
	}
}

func TestConsensusReleases(t *testing.T) {
	d := Decide(0.91, 0.71, "", true, "")
	if d.NeedsHITL {
		t.Fatalf("consensus path must release: %+v", d)
	}
}

func TestWeakVerifierHaltsMidConfidenceSolver(t *testing.T) {
	// Solver 0.92 clears consensus but not override; verifier 0.6 blocks.
	d := Decide(0.92, 0.6, "", true, "step 3 unsupported")
	if !d.NeedsHITL {
		t.Fatal("mid-confidence solver with weak verifier must halt")
	}
	if !strings.Contains(d.Reason, "Verification Failed") {
		t.Fatalf("reason = %q", d.Reason)
	}
}

func TestStrongSolverOverridesWeakVerifier(t *testing.T) {
	d := Decide(0.96, 0.2, "", true, "")
	if d.NeedsHITL {
		t.Fatalf("override path must release: %+v", d)
	}
}

func TestFailedVerificationAlwaysHalts(t *testing.T) {
	d := Decide(0.99, 0.99, "", false, "answer contradicts substitution check")
	if !d.NeedsHITL {
		t.Fatal("failed verification must halt regardless of confidence")
	}
}

func TestThresholdsAreStrict(t *testing.T) {
	cases := []struct {
		name             string
		solver, verifier float64
		passed           bool
		wantHITL         bool
	}{
		{"solver at consensus floor", 0.9, 0.99, true, true},
		{"verifier at consensus floor", 0.99, 0.7, true, false}, // override path clears it
		{"solver at override floor only", 0.95, 0.1, true, true},
		{"just above both floors", 0.9001, 0.7001, true, false},
	}
	for _, c := range cases {
		d := Decide(c.solver, c.verifier, "", c.passed, "")
		if d.NeedsHITL != c.wantHITL {
			t.Fatalf("%s: NeedsHITL = %v, want %v", c.name, d.NeedsHITL, c.wantHITL)
		}
	}
}
