package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	providers Repository
}

func NewService(providers Repository) *Service {
	return &Service{providers: providers}
}

func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	if err := Validate(p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, limit, offset)
}

// ChangeStatus applies a manual operator status change. Busy is reserved
// for the assignment matcher, and a provider holding a patient cannot be
// moved until that patient is discharged; both would break the one-to-one
// binding invariant.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status Status) (*Provider, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	if status == StatusBusy {
		return nil, fmt.Errorf("Busy is set by assignment, not manually")
	}

	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CurrentPatientID != nil {
		return nil, fmt.Errorf("provider %s has a patient in consultation", p.ID)
	}
	if p.Status == status {
		return p, nil
	}

	p.Status = status
	if err := s.providers.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
