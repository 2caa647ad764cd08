package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	QuotaFlat       QuotaMode = "flat"
	QuotaPermillage QuotaMode = "permillage"

	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentLate    PaymentStatus = "late"

	ProjectActive ProjectStatus = "active"
	ProjectClosed ProjectStatus = "closed"

	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// DefaultPaymentDueDay is used at the edges when a building or project has no due day configured.
const DefaultPaymentDueDay = 1

type (
	QuotaMode     string
	PaymentStatus string
	ProjectStatus string
	Status        string

	Building struct {
		ID            int64
		Name          string
		MonthlyQuota  int64 // cents
		QuotaMode     QuotaMode
		PaymentDueDay int
	}

	Apartment struct {
		ID           int64
		BuildingID   int64
		Unit         string
		Permillage   float64
		ResidentID   string // empty when no resident is assigned
		ResidentName string
	}

	RegularPayment struct {
		ApartmentID int64
		Month       int // 1-12
		Year        int
		Status      PaymentStatus
		Amount      int64 // cents
	}

	ExtraordinaryProject struct {
		ID            int64
		BuildingID    int64
		Name          string
		Status        ProjectStatus
		StartMonth    int
		StartYear     int
		Installments  int
		PaymentDueDay int
	}

	ExtraordinaryInstallment struct {
		ProjectID   int64
		ApartmentID int64
		Number      int // 1-based
		Expected    int64
		Paid        int64
		Status      PaymentStatus
	}
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidQuotaMode  = errors.New("invalid quota mode")
	ErrInvalidStatus     = errors.New("invalid payment status")
	ErrInvalidProject    = errors.New("invalid project")
	ErrInvalidPermillage = errors.New("invalid permillage")
	ErrEmptyName         = errors.New("empty name")
)

// ParseQuotaMode accepts "global" as the legacy name for flat apportionment.
func ParseQuotaMode(s string) (QuotaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "global":
		return QuotaFlat, nil
	case "permillage":
		return QuotaPermillage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuotaMode, s)
}

func (m QuotaMode) IsValid() bool {
	return m == QuotaFlat || m == QuotaPermillage
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentLate:
		return true
	}
	return false
}

// ParseProjectStatus maps anything other than "active" to closed; only active
// projects take part in balance calculations.
func ParseProjectStatus(s string) ProjectStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(ProjectActive)) {
		return ProjectActive
	}
	return ProjectClosed
}

func validDueDay(d int) bool {
	return d >= 1 && d <= 31
}

func validMonth(m int) bool {
	return m >= 1 && m <= 12
}

func (b Building) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.MonthlyQuota < 0 {
		return ErrInvalidAmount
	}
	if !b.QuotaMode.IsValid() {
		return ErrInvalidQuotaMode
	}
	if !validDueDay(b.PaymentDueDay) {
		return ErrInvalidDay
	}
	return nil
}

func (a Apartment) Validate() error {
	if a.BuildingID <= 0 {
		return errors.New("apartment must belong to a building")
	}
	if strings.TrimSpace(a.Unit) == "" {
		return ErrEmptyName
	}
	if a.Permillage < 0 || a.Permillage > 1000 {
		return ErrInvalidPermillage
	}
	return nil
}

func (p RegularPayment) Validate() error {
	if p.ApartmentID <= 0 {
		return errors.New("payment must reference an apartment")
	}
	if !validMonth(p.Month) {
		return ErrInvalidMonth
	}
	if p.Year < 1900 || p.Year > 9999 {
		return errors.New("invalid year")
	}
	if !p.Status.IsValid() {
		return ErrInvalidStatus
	}
	if p.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p ExtraordinaryProject) Validate() error {
	if p.BuildingID <= 0 {
		return errors.New("project must belong to a building")
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !validMonth(p.StartMonth) {
		return ErrInvalidMonth
	}
	if p.StartYear < 1900 {
		return fmt.Errorf("%w: start year %d", ErrInvalidProject, p.StartYear)
	}
	if p.Installments < 1 {
		return fmt.Errorf("%w: at least one installment required", ErrInvalidProject)
	}
	if !validDueDay(p.PaymentDueDay) {
		return ErrInvalidDay
	}
	return nil
}

func (i ExtraordinaryInstallment) Validate() error {
	if i.ProjectID <= 0 || i.ApartmentID <= 0 {
		return errors.New("installment must reference a project and an apartment")
	}
	if i.Number < 1 {
		return fmt.Errorf("%w: installment number %d", ErrInvalidProject, i.Number)
	}
	if i.Expected < 0 || i.Paid < 0 {
		return ErrInvalidAmount
	}
	if !i.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
