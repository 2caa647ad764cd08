package http

import (
	"fmt"
	"time"

	"gestmais/internal/core"
)

type regularDTO struct {
	MonthlyQuotaCents int64 `json:"monthly_quota_cents"`
	DueToDateCents    int64 `json:"due_to_date_cents"`
	PaidCents         int64 `json:"paid_cents"`
	BalanceCents      int64 `json:"balance_cents"`
	OverdueMonths     int   `json:"overdue_months"`
	CurrentMonthPaid  bool  `json:"current_month_paid"`
}

type extraordinaryDTO struct {
	ActiveProjects      int   `json:"active_projects"`
	DueToDateCents      int64 `json:"due_to_date_cents"`
	PaidCents           int64 `json:"paid_cents"`
	BalanceCents        int64 `json:"balance_cents"`
	OverdueInstallments int   `json:"overdue_installments"`
}

type summaryDTO struct {
	Label             string           `json:"label"`
	Status            string           `json:"status"`
	Message           string           `json:"message"`
	Regular           regularDTO       `json:"regular"`
	Extraordinary     extraordinaryDTO `json:"extraordinary"`
	TotalBalanceCents int64            `json:"total_balance_cents"`
	TotalBalance      string           `json:"total_balance"`
	AsOf              string           `json:"as_of"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

type apartmentLineDTO struct {
	ApartmentID  int64      `json:"apartment_id"`
	Unit         string     `json:"unit"`
	ResidentName string     `json:"resident_name,omitempty"`
	Permillage   float64    `json:"permillage"`
	Summary      summaryDTO `json:"summary"`
}

type overviewDTO struct {
	BuildingID int64              `json:"building_id"`
	Name       string             `json:"name"`
	Summary    summaryDTO         `json:"summary"`
	Apartments []apartmentLineDTO `json:"apartments"`
}

type paymentDTO struct {
	ApartmentID int64  `json:"apartment_id"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
}

func toSummaryDTO(s core.PaymentStatusSummary) summaryDTO {
	return summaryDTO{
		Label:   s.Label,
		Status:  string(s.Status),
		Message: s.Message,
		Regular: regularDTO{
			MonthlyQuotaCents: s.Regular.MonthlyQuota,
			DueToDateCents:    s.Regular.DueToDate,
			PaidCents:         s.Regular.Paid,
			BalanceCents:      s.Regular.Balance,
			OverdueMonths:     s.Regular.OverdueMonths,
			CurrentMonthPaid:  s.Regular.CurrentMonthPaid,
		},
		Extraordinary: extraordinaryDTO{
			ActiveProjects:      s.Extraordinary.ActiveProjects,
			DueToDateCents:      s.Extraordinary.DueToDate,
			PaidCents:           s.Extraordinary.Paid,
			BalanceCents:        s.Extraordinary.Balance,
			OverdueInstallments: s.Extraordinary.OverdueInstallments,
		},
		TotalBalanceCents: s.TotalBalance,
		TotalBalance:      core.FormatEuros(s.TotalBalance),
		AsOf:              fmt.Sprintf("%04d-%02d-%02d", s.AsOf.Year, s.AsOf.Month, s.AsOf.Day),
		GeneratedAt:       s.GeneratedAt,
	}
}

func toOverviewDTO(ov core.BuildingOverview) overviewDTO {
	lines := make([]apartmentLineDTO, 0, len(ov.Apartments))
	for _, l := range ov.Apartments {
		lines = append(lines, apartmentLineDTO{
			ApartmentID:  l.ApartmentID,
			Unit:         l.Unit,
			ResidentName: l.ResidentName,
			Permillage:   l.Permillage,
			Summary:      toSummaryDTO(l.Summary),
		})
	}
	return overviewDTO{
		BuildingID: ov.BuildingID,
		Name:       ov.Name,
		Summary:    toSummaryDTO(ov.Summary),
		Apartments: lines,
	}
}

func toPaymentDTO(p core.RegularPayment) paymentDTO {
	return paymentDTO{
		ApartmentID: p.ApartmentID,
		Month:       p.Month,
		Year:        p.Year,
		Status:      string(p.Status),
		AmountCents: p.Amount,
	}
}
