package storage

import (
	"context"
	"errors"

	"gestmais/internal/core"
)

// ErrNotFound is returned when a requested building, apartment or resident does not exist.
var ErrNotFound = errors.New("not found")

// ApartmentRecord is an apartment joined with the building it belongs to.
type ApartmentRecord struct {
	core.Apartment
	Building core.Building
}

// InstallmentFilter narrows ListInstallments. A zero ApartmentID matches every
// apartment. A nil ProjectIDs matches every project; an empty non-nil slice matches none.
type InstallmentFilter struct {
	ApartmentID int64
	ProjectIDs  []int64
}

// Ports consumed by the payment status engine.
type (
	BuildingReader interface {
		GetBuilding(ctx context.Context, buildingID int64) (core.Building, error)
		ListApartments(ctx context.Context, buildingID int64) ([]core.Apartment, error)
	}

	ApartmentReader interface {
		GetApartment(ctx context.Context, apartmentID int64) (ApartmentRecord, error)
		// GetResidentApartment returns the apartment assigned to a resident user.
		GetResidentApartment(ctx context.Context, userID string) (ApartmentRecord, error)
	}

	PaymentReader interface {
		ListRegularPayments(ctx context.Context, apartmentID int64, year int) ([]core.RegularPayment, error)
		ListBuildingRegularPayments(ctx context.Context, buildingID int64, year int) ([]core.RegularPayment, error)
		ListActiveProjects(ctx context.Context, buildingID int64) ([]core.ExtraordinaryProject, error)
		ListInstallments(ctx context.Context, filter InstallmentFilter) ([]core.ExtraordinaryInstallment, error)
	}

	PaymentWriter interface {
		// UpsertRegularPayment inserts or overwrites the record for
		// (apartment, month, year) in a single atomic statement.
		UpsertRegularPayment(ctx context.Context, p core.RegularPayment) error
	}

	// Seeder is the creation boundary for buildings, apartments and projects.
	Seeder interface {
		CreateBuilding(ctx context.Context, b core.Building) (int64, error)
		CreateApartment(ctx context.Context, a core.Apartment) (int64, error)
		CreateProject(ctx context.Context, p core.ExtraordinaryProject) (int64, error)
		UpsertInstallment(ctx context.Context, i core.ExtraordinaryInstallment) error
	}

	Reader interface {
		BuildingReader
		ApartmentReader
		PaymentReader
	}

	Store interface {
		Reader
		PaymentWriter
		Seeder
	}
)
