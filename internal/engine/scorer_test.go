package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
)

func floatPtr(f float64) *float64 { return &f }

func TestRuleScorer_CriticalSymptomWithLowSpO2(t *testing.T) {
	p := &patient.Patient{
		Name:     "John Doe",
		Age:      45,
		Gender:   "Male",
		Symptoms: []string{"Chest Pain"},
		Vitals:   patient.Vitals{SpO2: floatPtr(88)},
	}

	res, err := RuleScorer{}.Score(context.Background(), p)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	// 50 for chest pain + 40 for SpO2 < 90.
	if res.Score != 90 {
		t.Errorf("Score = %d, want 90", res.Score)
	}
	if res.Class != patient.PriorityCritical {
		t.Errorf("Class = %s, want Critical", res.Class)
	}
	if !strings.Contains(res.Explanation, "chest pain") {
		t.Errorf("explanation missing chest pain mention: %q", res.Explanation)
	}
	if !strings.Contains(res.Explanation, "SpO2") {
		t.Errorf("explanation missing SpO2 mention: %q", res.Explanation)
	}
}

func TestRuleScorer_Table(t *testing.T) {
	tests := []struct {
		name      string
		patient   patient.Patient
		wantScore int
		wantClass patient.Priority
	}{
		{
			name:      "no symptoms routine",
			patient:   patient.Patient{Name: "A", Age: 30, Symptoms: []string{"mild headache"}},
			wantScore: 0,
			wantClass: patient.PriorityRoutine,
		},
		{
			name:      "urgent keyword",
			patient:   patient.Patient{Name: "B", Age: 30, Symptoms: []string{"Broken Bone"}},
			wantScore: 20,
			wantClass: patient.PrioritySemiUrgent,
		},
		{
			name:      "two urgent keywords cross into urgent",
			patient:   patient.Patient{Name: "C", Age: 30, Symptoms: []string{"vomiting", "abdominal pain"}},
			wantScore: 40,
			wantClass: patient.PriorityUrgent,
		},
		{
			name: "moderate fever adds five without trace",
			patient: patient.Patient{Name: "D", Age: 30, Symptoms: []string{"cough"},
				Vitals: patient.Vitals{Temperature: floatPtr(38.2)}},
			wantScore: 5,
			wantClass: patient.PriorityRoutine,
		},
		{
			name: "high fever",
			patient: patient.Patient{Name: "E", Age: 30, Symptoms: []string{"cough"},
				Vitals: patient.Vitals{Temperature: floatPtr(39.8)}},
			wantScore: 15,
			wantClass: patient.PrioritySemiUrgent,
		},
		{
			name: "borderline spo2",
			patient: patient.Patient{Name: "F", Age: 30,
				Vitals: patient.Vitals{SpO2: floatPtr(93)}},
			wantScore: 10,
			wantClass: patient.PrioritySemiUrgent,
		},
		{
			name:      "pediatric bonus",
			patient:   patient.Patient{Name: "G", Age: 3},
			wantScore: 5,
			wantClass: patient.PriorityRoutine,
		},
		{
			name:      "geriatric bonus",
			patient:   patient.Patient{Name: "H", Age: 82},
			wantScore: 10,
			wantClass: patient.PrioritySemiUrgent,
		},
		{
			name: "keyword embedded in longer label",
			patient: patient.Patient{Name: "I", Age: 40,
				Symptoms: []string{"sudden severe chest pain radiating to arm"}},
			wantScore: 50,
			wantClass: patient.PriorityCritical,
		},
		{
			name: "stacked critical keywords",
			patient: patient.Patient{Name: "J", Age: 75,
				Symptoms: []string{"stroke", "difficulty breathing"},
				Vitals:   patient.Vitals{SpO2: floatPtr(85), Temperature: floatPtr(40)}},
			wantScore: 50 + 50 + 40 + 15 + 10,
			wantClass: patient.PriorityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RuleScorer{}.Score(context.Background(), &tt.patient)
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			if res.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", res.Score, tt.wantScore)
			}
			if res.Class != tt.wantClass {
				t.Errorf("Class = %s, want %s", res.Class, tt.wantClass)
			}
		})
	}
}

func TestRuleScorer_Deterministic(t *testing.T) {
	p := &patient.Patient{
		Name:     "Repeat",
		Age:      67,
		Symptoms: []string{"Severe Bleeding", "high fever"},
		Vitals:   patient.Vitals{Temperature: floatPtr(39.6), SpO2: floatPtr(91)},
	}

	first, _ := RuleScorer{}.Score(context.Background(), p)
	for i := 0; i < 10; i++ {
		res, _ := RuleScorer{}.Score(context.Background(), p)
		if res != first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, res, first)
		}
	}
}

func TestFallbackScorer_TagsExplanation(t *testing.T) {
	p := &patient.Patient{
		Name:     "Degraded",
		Age:      50,
		Symptoms: []string{"chest pain"},
		Vitals:   patient.Vitals{Temperature: floatPtr(39.9)},
	}

	res, err := FallbackScorer{}.Score(context.Background(), p)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if res.Score != 65 {
		t.Errorf("Score = %d, want 65", res.Score)
	}
	if !strings.Contains(res.Explanation, "Fallback scoring") {
		t.Errorf("explanation missing fallback tag: %q", res.Explanation)
	}
}

func TestFallbackScorer_IgnoresUrgentKeywordsAndVitals(t *testing.T) {
	p := &patient.Patient{
		Name:     "Partial",
		Age:      80,
		Symptoms: []string{"broken bone", "vomiting"},
		Vitals:   patient.Vitals{SpO2: floatPtr(85)},
	}

	res, _ := FallbackScorer{}.Score(context.Background(), p)

	// Fallback only sees critical keywords and high fever; none apply here.
	if res.Score != 0 {
		t.Errorf("Score = %d, want 0", res.Score)
	}
	if res.Class != patient.PriorityRoutine {
		t.Errorf("Class = %s, want Routine", res.Class)
	}
	if res.Explanation != "Fallback scoring (external scorer unavailable)" {
		t.Errorf("unexpected explanation: %q", res.Explanation)
	}
}
