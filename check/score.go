package check

import "github.com/optimode/mailprobe/types"

// Status thresholds.
const (
	ValidThreshold = 75
	RiskyThreshold = 45
)

// Score sums the signal weights recorded in c and clamps the total to
// [0, 100]. A failed syntax check scores 0. Score is pure: the same checks
// always give the same score.
func Score(c types.Checks) int {
	if !c.Syntax {
		return 0
	}
	score := 20

	if c.Disposable {
		score -= 30
	} else {
		score += 15
	}
	if c.RoleBased {
		score -= 10
	} else {
		score += 10
	}
	if c.DNS {
		score += 25
	}
	if c.HasMX {
		score += 25
		switch c.SMTP {
		case types.True:
			if c.CatchAll {
				score += 10
			} else {
				score += 30
			}
		case types.Unknown:
			score += 10
		}
	}
	if c.CatchAll {
		score -= 20
	}

	return min(max(score, 0), 100)
}

// StatusFor maps a score to a status.
func StatusFor(score int) types.Status {
	switch {
	case score >= ValidThreshold:
		return types.StatusValid
	case score >= RiskyThreshold:
		return types.StatusRisky
	default:
		return types.StatusInvalid
	}
}
