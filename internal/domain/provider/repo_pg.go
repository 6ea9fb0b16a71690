package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const providerCols = `id, name, role, capabilities, status, current_patient_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.Role, &p.Capabilities, &p.Status,
		&p.CurrentPatientID, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Provider) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO providers (id, name, role, capabilities, status, current_patient_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Role, p.Capabilities, p.Status, p.CurrentPatientID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+providerCols+` FROM providers WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Provider) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE providers SET name=$2, capabilities=$3, status=$4, current_patient_id=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Capabilities, p.Status, p.CurrentPatientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("provider %s not found", p.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+providerCols+` FROM providers
		ORDER BY created_at ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Provider
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repoPG) ListAvailableDoctors(ctx context.Context) ([]*Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+providerCols+` FROM providers
		WHERE role = $1 AND status = $2 ORDER BY created_at ASC`,
		RoleDoctor, StatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Provider
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
