// Package engine implements the triage core: symptom/vitals scoring, the
// continuously reordered waiting queue with anti-starvation aging, the
// stress-mode ordering bias, and greedy capability-based assignment of
// waiting patients to available doctors.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
)

// ScoreResult is the outcome of scoring a single patient.
type ScoreResult struct {
	Score       int
	Class       patient.Priority
	Explanation string
}

// Scorer converts patient attributes into an urgency score, a priority
// class and a human-readable explanation. Implementations must be
// deterministic for identical input.
type Scorer interface {
	Score(ctx context.Context, p *patient.Patient) (ScoreResult, error)
}

var criticalKeywords = []string{
	"chest pain", "stroke", "unconscious", "severe bleeding", "difficulty breathing",
}

var urgentKeywords = []string{
	"broken bone", "high fever", "abdominal pain", "vomiting",
}

// RuleScorer is the deterministic default strategy: keyword matching over
// symptoms, vital-sign thresholds, and age bonuses.
type RuleScorer struct{}

func (RuleScorer) Score(_ context.Context, p *patient.Patient) (ScoreResult, error) {
	score := 0
	var trace []string

	symptoms := loweredLabels(p.Symptoms)
	for _, k := range criticalKeywords {
		if anyContains(symptoms, k) {
			score += 50
			trace = append(trace, "Critical symptom detected: "+k)
		}
	}
	for _, k := range urgentKeywords {
		if anyContains(symptoms, k) {
			score += 20
			trace = append(trace, "Urgent symptom detected: "+k)
		}
	}

	if t := p.Vitals.Temperature; t != nil {
		if *t >= 39.5 {
			score += 15
			trace = append(trace, "High Fever (>39.5C)")
		} else if *t >= 38 {
			score += 5
		}
	}
	if s := p.Vitals.SpO2; s != nil {
		if *s < 90 {
			score += 40
			trace = append(trace, "Critical Low SpO2 (<90%)")
		} else if *s < 95 {
			score += 10
			trace = append(trace, "Low SpO2 (<95%)")
		}
	}

	if p.Age < 5 {
		score += 5
		trace = append(trace, "Pediatric patient bonus")
	} else if p.Age > 70 {
		score += 10
		trace = append(trace, "Geriatric patient bonus")
	}

	return ScoreResult{
		Score:       score,
		Class:       patient.ClassifyScore(score),
		Explanation: strings.Join(trace, "; "),
	}, nil
}

// FallbackScorer is the degraded strategy used when the external scorer
// fails: critical keywords plus a simple temperature check only. Its
// explanation is tagged so a reviewer can see the score is fallback-derived.
type FallbackScorer struct{}

func (FallbackScorer) Score(_ context.Context, p *patient.Patient) (ScoreResult, error) {
	score := 0
	var trace []string

	symptoms := loweredLabels(p.Symptoms)
	for _, k := range criticalKeywords {
		if anyContains(symptoms, k) {
			score += 50
			trace = append(trace, "Critical symptom detected: "+k)
		}
	}
	if t := p.Vitals.Temperature; t != nil && *t >= 39.5 {
		score += 15
		trace = append(trace, "High Fever (>39.5C)")
	}

	explanation := "Fallback scoring (external scorer unavailable)"
	if len(trace) > 0 {
		explanation = fmt.Sprintf("%s: %s", explanation, strings.Join(trace, "; "))
	}

	return ScoreResult{
		Score:       score,
		Class:       patient.ClassifyScore(score),
		Explanation: explanation,
	}, nil
}

func loweredLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.ToLower(l)
	}
	return out
}

func anyContains(labels []string, keyword string) bool {
	for _, l := range labels {
		if strings.Contains(l, keyword) {
			return true
		}
	}
	return false
}
