package doctor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.DoctorID,
		&d.Name,
		&d.Specialization,
		&d.ExperienceYears,
		&d.ContactNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgDirectory) GetByID(ctx context.Context, doctorID string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT doctor_id, name, specialization, experience_years, contact_number
		FROM doctors
		WHERE doctor_id = $1
	`, doctorID)
	return scanDoctor(row)
}

func (r *PgDirectory) List(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, name, specialization, experience_years, contact_number
		FROM doctors
		ORDER BY doctor_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
