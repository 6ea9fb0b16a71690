package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDoctor Role = "Doctor"
	RoleNurse  Role = "Nurse"
)

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RoleNurse
}

type Status string

const (
	StatusAvailable Status = "Available"
	StatusBusy      Status = "Busy"
	StatusOnBreak   Status = "On-Break"
	StatusOffline   Status = "Offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOnBreak, StatusOffline:
		return true
	}
	return false
}

// Provider maps to the providers table. Capabilities are free-text
// specialization labels matched case-insensitively against patient symptoms.
type Provider struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Role             Role       `db:"role" json:"role"`
	Capabilities     []string   `db:"capabilities" json:"capabilities"`
	Status           Status     `db:"status" json:"status"`
	CurrentPatientID *uuid.UUID `db:"current_patient_id" json:"current_patient_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// MatchesSymptom reports whether any capability label overlaps the symptom
// via case-insensitive substring containment in either direction.
func (p *Provider) MatchesSymptom(symptom string) bool {
	sym := strings.ToLower(strings.TrimSpace(symptom))
	if sym == "" {
		return false
	}
	for _, cap := range p.Capabilities {
		c := strings.ToLower(strings.TrimSpace(cap))
		if c == "" {
			continue
		}
		if strings.Contains(sym, c) || strings.Contains(c, sym) {
			return true
		}
	}
	return false
}

func Validate(p *Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("role must be Doctor or Nurse, got %q", p.Role)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return nil
}
