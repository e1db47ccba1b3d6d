// Package doctor holds the clinic's doctor directory: static reference
// data the queue engine consults to validate bookings and label the
// management summary. Authentication lives outside this repo.
package doctor

import (
	"context"
	"errors"
)

var ErrDoctorNotFound = errors.New("doctor not found")

type Doctor struct {
	DoctorID        string
	Name            string
	Specialization  string
	ExperienceYears int
	ContactNumber   string
}

// Directory is the read-only lookup surface the engine needs.
type Directory interface {
	GetByID(ctx context.Context, doctorID string) (*Doctor, error)
	List(ctx context.Context) ([]Doctor, error)
}
