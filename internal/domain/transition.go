package domain

import (
	"fmt"
	"time"
)

// TransitionDecision is the outcome of evaluating a domain against its
// pool's lifecycle rules.
type TransitionDecision struct {
	ShouldTransition bool     `json:"should_transition"`
	TargetPool       PoolType `json:"target_pool,omitempty"`
	Reason           string   `json:"reason"`
}

func stay(reason string) TransitionDecision {
	return TransitionDecision{ShouldTransition: false, Reason: reason}
}

func move(target PoolType, reason string) TransitionDecision {
	return TransitionDecision{ShouldTransition: true, TargetPool: target, Reason: reason}
}

// EvaluateTransition decides whether a domain should move to another
// pool. It is deterministic and side-effect free; the caller supplies
// the rules of the domain's current pool.
//
// The lifecycle, in order:
//
//	initial_warming -> ready_waiting  after GraduationDays with MinTests
//	                                  recent scores averaging MinScore
//	ready_waiting   -> active         once an ACTIVE campaign exists and
//	                                  recent scores still average MinScore
//	active          -> recovery       after MaxConsecutiveLowScores low
//	                                  results in a row
//	recovery        -> ready_waiting  after RecoveryDays with every one
//	                                  of the MinTests recent scores at or
//	                                  above MinScore
func EvaluateTransition(d *SendingDomain, rules AutomationRules, now time.Time) TransitionDecision {
	if !d.IsActive() {
		return stay("domain is deactivated")
	}

	switch d.Pool {
	case PoolInitialWarming:
		if days := d.DaysInPool(now); days < rules.GraduationDays {
			return stay(fmt.Sprintf("only %d days in pool, needs %d", days, rules.GraduationDays))
		}
		scores := d.LastScores(rules.MinTests)
		if len(scores) < rules.MinTests {
			return stay(fmt.Sprintf("only %d test results, needs %d", len(scores), rules.MinTests))
		}
		if mean := MeanScore(scores); mean < float64(rules.MinScore) {
			return stay(fmt.Sprintf("average score %.1f below %d", mean, rules.MinScore))
		}
		return move(PoolReadyWaiting, fmt.Sprintf(
			"Graduated: %d days in pool with average score %.1f",
			d.DaysInPool(now), MeanScore(d.LastScores(rules.MinTests))))

	case PoolReadyWaiting:
		scores := d.LastScores(rules.MinTests)
		if len(scores) < rules.MinTests {
			return stay(fmt.Sprintf("only %d test results, needs %d", len(scores), rules.MinTests))
		}
		mean := MeanScore(scores)
		if mean < float64(rules.MinScore) {
			return stay(fmt.Sprintf("average score %.1f below %d", mean, rules.MinScore))
		}
		if !d.HasActiveCampaign() {
			return stay("no active campaign")
		}
		return move(PoolActive, fmt.Sprintf(
			"Promoted: average score %.1f with an active campaign", mean))

	case PoolActive:
		if d.ConsecutiveLowScores < rules.MaxConsecutiveLowScores {
			return stay(fmt.Sprintf("%d consecutive low scores, needs %d",
				d.ConsecutiveLowScores, rules.MaxConsecutiveLowScores))
		}
		return move(PoolRecovery, fmt.Sprintf(
			"%d consecutive scores below %d", d.ConsecutiveLowScores, LowScoreThreshold))

	case PoolRecovery:
		if days := d.DaysInPool(now); days < rules.RecoveryDays {
			return stay(fmt.Sprintf("only %d days in recovery, needs %d", days, rules.RecoveryDays))
		}
		scores := d.LastScores(rules.MinTests)
		if len(scores) < rules.MinTests {
			return stay(fmt.Sprintf("only %d test results, needs %d", len(scores), rules.MinTests))
		}
		for _, s := range scores {
			if s < rules.MinScore {
				return stay(fmt.Sprintf("a recent score of %d is below %d", s, rules.MinScore))
			}
		}
		return move(PoolReadyWaiting, fmt.Sprintf(
			"Recovered: %d days with every recent score at or above %d",
			d.DaysInPool(now), rules.MinScore))

	default:
		return stay(fmt.Sprintf("unknown pool %q", string(d.Pool)))
	}
}
