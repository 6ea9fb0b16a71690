package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// ListByStatus returns every patient in the given status ordered by
	// arrival time. The engine uses it for "find all Waiting patients".
	ListByStatus(ctx context.Context, status Status) ([]*Patient, error)
}
