package core

import "time"

// RegularSummary is the regular monthly quota position up to the due cutoff.
type RegularSummary struct {
	MonthlyQuota     int64
	DueToDate        int64
	Paid             int64
	Balance          int64
	OverdueMonths    int
	CurrentMonthPaid bool
}

// ExtraordinarySummary is the position across active extraordinary projects.
// Balance is not floored at zero.
type ExtraordinarySummary struct {
	ActiveProjects      int
	DueToDate           int64
	Paid                int64
	Balance             int64
	OverdueInstallments int
}

// PaymentStatusSummary is computed per request and never stored.
type PaymentStatusSummary struct {
	Label         string
	Status        Status
	Message       string
	Regular       RegularSummary
	Extraordinary ExtraordinarySummary
	TotalBalance  int64
	AsOf          AsOf
	GeneratedAt   time.Time
}

// ApartmentStatusLine is one row of a building overview.
type ApartmentStatusLine struct {
	ApartmentID  int64
	Unit         string
	ResidentName string
	Permillage   float64
	Summary      PaymentStatusSummary
}

// BuildingOverview combines the building-level summary with each apartment's own status.
type BuildingOverview struct {
	BuildingID int64
	Name       string
	Summary    PaymentStatusSummary
	Apartments []ApartmentStatusLine
}
