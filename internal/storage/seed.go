package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gestmais/internal/core"
)

// Seed describes buildings with their apartments, payments and projects.
// It is the JSON format accepted by `gestmaisctl seed` and the memory backend.
type Seed struct {
	Buildings []SeedBuilding `json:"buildings"`
}

type SeedBuilding struct {
	Name              string          `json:"name"`
	MonthlyQuotaCents int64           `json:"monthly_quota_cents"`
	QuotaMode         string          `json:"quota_mode"`
	PaymentDueDay     int             `json:"payment_due_day"`
	Apartments        []SeedApartment `json:"apartments"`
	Projects          []SeedProject   `json:"projects"`
}

type SeedApartment struct {
	Unit         string        `json:"unit"`
	Permillage   float64       `json:"permillage"`
	ResidentID   string        `json:"resident_id"`
	ResidentName string        `json:"resident_name"`
	Payments     []SeedPayment `json:"payments"`
}

type SeedPayment struct {
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
}

type SeedProject struct {
	Name          string            `json:"name"`
	Status        string            `json:"status"`
	StartMonth    int               `json:"start_month"`
	StartYear     int               `json:"start_year"`
	Installments  int               `json:"installments"`
	PaymentDueDay int               `json:"payment_due_day"`
	Payments      []SeedInstallment `json:"payments"`
}

type SeedInstallment struct {
	Unit          string `json:"unit"`
	Number        int    `json:"number"`
	ExpectedCents int64  `json:"expected_cents"`
	PaidCents     int64  `json:"paid_cents"`
	Status        string `json:"status"`
}

// SeedWriter is everything ApplySeed needs to write.
type SeedWriter interface {
	Seeder
	PaymentWriter
}

// LoadSeedFile reads a JSON seed file.
func LoadSeedFile(path string) (Seed, error) {
	var s Seed
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read seed file: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode seed file: %w", err)
	}
	return s, nil
}

// ApplySeed creates everything described by s. Missing due days default to
// the first of the month here, so the engine only ever sees resolved values.
func ApplySeed(ctx context.Context, w SeedWriter, s Seed) error {
	for _, sb := range s.Buildings {
		mode, err := core.ParseQuotaMode(sb.QuotaMode)
		if err != nil {
			return fmt.Errorf("building %q: %w", sb.Name, err)
		}
		b := core.Building{
			Name:          sb.Name,
			MonthlyQuota:  sb.MonthlyQuotaCents,
			QuotaMode:     mode,
			PaymentDueDay: dueDayOrDefault(sb.PaymentDueDay),
		}
		buildingID, err := w.CreateBuilding(ctx, b)
		if err != nil {
			return fmt.Errorf("create building %q: %w", sb.Name, err)
		}

		units := make(map[string]int64, len(sb.Apartments))
		for _, sa := range sb.Apartments {
			aptID, err := w.CreateApartment(ctx, core.Apartment{
				BuildingID:   buildingID,
				Unit:         sa.Unit,
				Permillage:   sa.Permillage,
				ResidentID:   sa.ResidentID,
				ResidentName: sa.ResidentName,
			})
			if err != nil {
				return fmt.Errorf("create apartment %q: %w", sa.Unit, err)
			}
			units[sa.Unit] = aptID

			for _, sp := range sa.Payments {
				status, err := core.ParsePaymentStatus(sp.Status)
				if err != nil {
					return fmt.Errorf("apartment %q payment %d/%d: %w", sa.Unit, sp.Month, sp.Year, err)
				}
				p := core.RegularPayment{ApartmentID: aptID, Month: sp.Month, Year: sp.Year, Status: status, Amount: sp.AmountCents}
				if err := p.Validate(); err != nil {
					return fmt.Errorf("apartment %q payment %d/%d: %w", sa.Unit, sp.Month, sp.Year, err)
				}
				if err := w.UpsertRegularPayment(ctx, p); err != nil {
					return fmt.Errorf("upsert payment: %w", err)
				}
			}
		}

		for _, sp := range sb.Projects {
			projectID, err := w.CreateProject(ctx, core.ExtraordinaryProject{
				BuildingID:    buildingID,
				Name:          sp.Name,
				Status:        core.ParseProjectStatus(sp.Status),
				StartMonth:    sp.StartMonth,
				StartYear:     sp.StartYear,
				Installments:  sp.Installments,
				PaymentDueDay: dueDayOrDefault(sp.PaymentDueDay),
			})
			if err != nil {
				return fmt.Errorf("create project %q: %w", sp.Name, err)
			}
			for _, si := range sp.Payments {
				aptID, ok := units[si.Unit]
				if !ok {
					return fmt.Errorf("project %q references unknown unit %q", sp.Name, si.Unit)
				}
				raw := si.Status
				if raw == "" {
					raw = string(core.PaymentPending)
				}
				status, err := core.ParsePaymentStatus(raw)
				if err != nil {
					return fmt.Errorf("project %q installment %d: %w", sp.Name, si.Number, err)
				}
				err = w.UpsertInstallment(ctx, core.ExtraordinaryInstallment{
					ProjectID:   projectID,
					ApartmentID: aptID,
					Number:      si.Number,
					Expected:    si.ExpectedCents,
					Paid:        si.PaidCents,
					Status:      status,
				})
				if err != nil {
					return fmt.Errorf("upsert installment: %w", err)
				}
			}
		}
	}
	return nil
}

func dueDayOrDefault(d int) int {
	if d == 0 {
		return core.DefaultPaymentDueDay
	}
	return d
}
