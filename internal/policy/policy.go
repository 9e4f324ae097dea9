// Package policy decides whether a verified solution ships to the user or
// halts for a human. The default is to halt: a solution clears only by
// meeting one of the explicit release conditions.
package policy

// #region imports
import (
	"fmt"
)

// #endregion

// #region thresholds

// Release thresholds. Strict comparisons: a score sitting exactly on a
// threshold does not clear it.
const (
	// SolverConsensusMin is the solver confidence floor on the consensus path.
	SolverConsensusMin = 0.9
	// VerifierConsensusMin is the verifier confidence floor on the consensus path.
	VerifierConsensusMin = 0.7
	// SolverOverrideMin lets a very confident solver override a weak verifier.
	SolverOverrideMin = 0.95
	// ToolSanityMin is the verifier floor for tool-produced answers.
	ToolSanityMin = 0.5
)

// ProvenanceTool marks answers computed by the deterministic calculator.
const ProvenanceTool = "calculator"

// #endregion

// #region decision

// Decision is the HITL verdict for one solved problem.
type Decision struct {
	NeedsHITL bool
	Reason    string
}

// Decide applies the release policy.
//
// Tool-produced answers are trusted unless the sanity check scored low.
// Model-produced answers need verification to pass plus either consensus
// (solver and verifier both confident) or an overriding solver score.
func Decide(solverConf, verifierConf float64, provenance string, verificationPassed bool, critique string) Decision {
	if provenance == ProvenanceTool {
		if verifierConf > ToolSanityMin {
			return Decision{}
		}
		return Decision{
			NeedsHITL: true,
			Reason:    fmt.Sprintf("Calculator Sanity Check Failed: %s", critique),
		}
	}

	if verificationPassed && solverConf > SolverConsensusMin && verifierConf > VerifierConsensusMin {
		return Decision{}
	}
	if verificationPassed && solverConf > SolverOverrideMin {
		return Decision{}
	}
	return Decision{
		NeedsHITL: true,
		Reason: fmt.Sprintf("Verification Failed. Solver: %g, Verifier: %g, Critique: %s",
			solverConf, verifierConf, critique),
	}
}

// #endregion
