package engine

import (
	"github.com/google/uuid"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
	"github.com/triagedesk/triagedesk/internal/domain/provider"
)

// Binding records one patient-provider assignment made in a pass.
type Binding struct {
	PatientID               uuid.UUID `json:"patient_id"`
	PatientName             string    `json:"patient_name"`
	ProviderID              uuid.UUID `json:"provider_id"`
	ProviderName            string    `json:"provider_name"`
	MatchedBySpecialization bool      `json:"matched_by_specialization"`
}

// MatchAssignments walks the priority-ordered waiting list and binds each
// patient to the first remaining doctor whose capabilities overlap a
// symptom, falling back to the first remaining doctor when no
// specialization matches. Bound doctors leave the local pool immediately so
// one pass can never double-book. When the pool empties, remaining patients
// are left untouched.
//
// Both sides of each binding are mutated in memory; persistence is the
// caller's job.
func MatchAssignments(ordered []*patient.Patient, pool []*provider.Provider) []Binding {
	available := make([]*provider.Provider, len(pool))
	copy(available, pool)

	var bindings []Binding
	for _, pat := range ordered {
		if pat.Status != patient.StatusWaiting {
			continue
		}
		if len(available) == 0 {
			break
		}

		idx, matched := pickProvider(available, pat)
		doc := available[idx]
		available = append(available[:idx], available[idx+1:]...)

		bind(pat, doc)
		bindings = append(bindings, Binding{
			PatientID:               pat.ID,
			PatientName:             pat.Name,
			ProviderID:              doc.ID,
			ProviderName:            doc.Name,
			MatchedBySpecialization: matched,
		})
	}
	return bindings
}

// pickProvider returns the index of the first capability match in pool
// order, or index 0 when nothing matches.
func pickProvider(available []*provider.Provider, pat *patient.Patient) (int, bool) {
	for i, doc := range available {
		for _, sym := range pat.Symptoms {
			if doc.MatchesSymptom(sym) {
				return i, true
			}
		}
	}
	return 0, false
}

// bind updates both sides of the weak back-reference together so the
// one-patient-per-provider invariant can't be half applied.
func bind(pat *patient.Patient, doc *provider.Provider) {
	docID := doc.ID
	patID := pat.ID
	pat.Status = patient.StatusInConsultation
	pat.AssignedProviderID = &docID
	doc.Status = provider.StatusBusy
	doc.CurrentPatientID = &patID
}

// unbind reverts a binding that could not be committed.
func unbind(pat *patient.Patient, doc *provider.Provider) {
	pat.Status = patient.StatusWaiting
	pat.AssignedProviderID = nil
	doc.Status = provider.StatusAvailable
	doc.CurrentPatientID = nil
}
