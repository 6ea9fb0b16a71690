package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks a patient through the triage lifecycle.
type Status string

const (
	StatusWaiting        Status = "Waiting"
	StatusInConsultation Status = "In-Consultation"
	StatusDischarged     Status = "Discharged"
	StatusDeferred       Status = "Deferred"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInConsultation, StatusDischarged, StatusDeferred:
		return true
	}
	return false
}

// CanTransitionTo enforces the triage state machine. Discharged is terminal;
// Deferred can only return to Waiting via manual reinstatement.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusInConsultation || next == StatusDeferred
	case StatusInConsultation:
		return next == StatusDischarged
	case StatusDeferred:
		return next == StatusWaiting
	}
	return false
}

// Priority is the coarse triage bucket governing primary queue order.
type Priority string

const (
	PriorityCritical   Priority = "Critical"
	PriorityUrgent     Priority = "Urgent"
	PrioritySemiUrgent Priority = "Semi-Urgent"
	PriorityRoutine    Priority = "Routine"
)

// Rank maps a priority class to its comparison weight. Unknown classes rank
// below Routine so a corrupt record sinks instead of jumping the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityUrgent:
		return 3
	case PrioritySemiUrgent:
		return 2
	case PriorityRoutine:
		return 1
	}
	return 0
}

// ClassifyScore derives the priority class from an urgency score.
func ClassifyScore(score int) Priority {
	switch {
	case score >= 50:
		return PriorityCritical
	case score >= 25:
		return PriorityUrgent
	case score >= 10:
		return PrioritySemiUrgent
	}
	return PriorityRoutine
}

// Vitals carries the optional numeric observations captured at intake.
// Heart rate, blood pressure and respiratory rate are persisted but not
// consulted by the current scoring rules.
type Vitals struct {
	Temperature     *float64 `db:"temperature" json:"temperature,omitempty"`
	HeartRate       *int     `db:"heart_rate" json:"heart_rate,omitempty"`
	BloodPressure   *string  `db:"blood_pressure" json:"blood_pressure,omitempty"`
	SpO2            *float64 `db:"spo2" json:"spo2,omitempty"`
	RespiratoryRate *int     `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
}

// Patient maps to the patients table.
type Patient struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Age      int       `db:"age" json:"age"`
	Gender   string    `db:"gender" json:"gender"`
	Symptoms []string  `db:"symptoms" json:"symptoms"`
	Vitals   Vitals    `json:"vitals"`

	// BaseScore is the score produced at triage time. UrgencyScore is
	// BaseScore plus the current starvation boost, recomputed from total
	// elapsed wait on every sweep so re-running a sweep never compounds.
	BaseScore     int      `db:"base_score" json:"base_score"`
	UrgencyScore  int      `db:"urgency_score" json:"urgency_score"`
	PriorityClass Priority `db:"priority_class" json:"priority_class"`
	Explanation   string   `db:"explanation" json:"explanation"`

	ArrivalTime        time.Time  `db:"arrival_time" json:"arrival_time"`
	Status             Status     `db:"status" json:"status"`
	AssignedProviderID *uuid.UUID `db:"assigned_provider_id" json:"assigned_provider_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

var validGenders = map[string]bool{
	"Male": true, "Female": true, "Other": true,
}

// ValidateIntake rejects a patient before any scoring happens. A failure here
// means no record is created at all.
func ValidateIntake(p *Patient) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age < 0 || p.Age > 130 {
		return fmt.Errorf("age must be between 0 and 130, got %d", p.Age)
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("gender must be Male, Female or Other, got %q", p.Gender)
	}
	for _, s := range p.Symptoms {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symptom labels must not be blank")
		}
	}
	return nil
}
