package patient

import (
	"context"

	"github.com/google/uuid"
)

// Service exposes read access to patient records. Writes flow through the
// triage engine, which owns scoring and the status state machine.
type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Patient, error) {
	return s.patients.ListByStatus(ctx, status)
}
