package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const patientCols = `id, name, age, gender, symptoms,
	temperature, heart_rate, blood_pressure, spo2, respiratory_rate,
	base_score, urgency_score, priority_class, explanation,
	arrival_time, status, assigned_provider_id, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Symptoms,
		&p.Vitals.Temperature, &p.Vitals.HeartRate, &p.Vitals.BloodPressure,
		&p.Vitals.SpO2, &p.Vitals.RespiratoryRate,
		&p.BaseScore, &p.UrgencyScore, &p.PriorityClass, &p.Explanation,
		&p.ArrivalTime, &p.Status, &p.AssignedProviderID, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, age, gender, symptoms,
			temperature, heart_rate, blood_pressure, spo2, respiratory_rate,
			base_score, urgency_score, priority_class, explanation,
			arrival_time, status, assigned_provider_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		p.ID, p.Name, p.Age, p.Gender, p.Symptoms,
		p.Vitals.Temperature, p.Vitals.HeartRate, p.Vitals.BloodPressure,
		p.Vitals.SpO2, p.Vitals.RespiratoryRate,
		p.BaseScore, p.UrgencyScore, p.PriorityClass, p.Explanation,
		p.ArrivalTime, p.Status, p.AssignedProviderID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients SET base_score=$2, urgency_score=$3, priority_class=$4,
			explanation=$5, status=$6, assigned_provider_id=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.BaseScore, p.UrgencyScore, p.PriorityClass,
		p.Explanation, p.Status, p.AssignedProviderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s not found", p.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients
		ORDER BY arrival_time DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Patient
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repoPG) ListByStatus(ctx context.Context, status Status) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients
		WHERE status = $1 ORDER BY arrival_time ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Patient
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
