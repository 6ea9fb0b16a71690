package engine

import (
	"sort"
	"time"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
)

// AdjustedScore applies the ephemeral stress-mode bias used during
// comparison only; the stored urgency score is never touched here.
func AdjustedScore(p *patient.Patient, modes ModeSnapshot) int {
	score := p.UrgencyScore
	if modes.HighLoad && p.PriorityClass == patient.PriorityRoutine {
		score -= 10
	}
	if modes.StaffShortage && p.PriorityClass == patient.PriorityCritical {
		score += 20
	}
	return score
}

// OrderQueue produces the total queue order: priority class rank descending,
// adjusted score descending, arrival time ascending. Identical arrivals fall
// back to the ID so the order is never arbitrary. The input slice is not
// modified.
func OrderQueue(waiting []*patient.Patient, modes ModeSnapshot) []*patient.Patient {
	ordered := make([]*patient.Patient, len(waiting))
	copy(ordered, waiting)

	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if ar, br := a.PriorityClass.Rank(), b.PriorityClass.Rank(); ar != br {
			return ar > br
		}
		if as, bs := AdjustedScore(a, modes), AdjustedScore(b, modes); as != bs {
			return as > bs
		}
		if !a.ArrivalTime.Equal(b.ArrivalTime) {
			return a.ArrivalTime.Before(b.ArrivalTime)
		}
		return a.ID.String() < b.ID.String()
	})
	return ordered
}

// AgingPolicy controls the starvation boost: after Threshold of waiting, a
// patient gains one point per Step elapsed.
type AgingPolicy struct {
	Threshold time.Duration
	Step      time.Duration
}

func DefaultAgingPolicy() AgingPolicy {
	return AgingPolicy{Threshold: 15 * time.Minute, Step: 5 * time.Minute}
}

// Boost returns the starvation boost for the given total wait. It is a pure
// function of elapsed time, which is what makes repeated sweeps idempotent.
func (ap AgingPolicy) Boost(waited time.Duration) int {
	if waited <= ap.Threshold {
		return 0
	}
	return int((waited - ap.Threshold) / ap.Step)
}

// Apply recomputes the patient's urgency score as base score plus the
// current boost, re-deriving the priority class when the score changes.
// The score never decreases across sweeps. Reports whether anything changed.
func (ap AgingPolicy) Apply(p *patient.Patient, now time.Time) bool {
	next := p.BaseScore + ap.Boost(now.Sub(p.ArrivalTime))
	if next <= p.UrgencyScore {
		return false
	}
	p.UrgencyScore = next
	p.PriorityClass = patient.ClassifyScore(next)
	return true
}
