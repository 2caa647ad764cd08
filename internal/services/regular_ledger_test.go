package services

import (
	"reflect"
	"testing"

	"gestmais/internal/core"
)

func paidMonths(aptID int64, year int, amount int64, months ...int) []core.RegularPayment {
	out := make([]core.RegularPayment, 0, len(months))
	for _, m := range months {
		out = append(out, core.RegularPayment{ApartmentID: aptID, Month: m, Year: year, Status: core.PaymentPaid, Amount: amount})
	}
	return out
}

func TestEvaluateRegular_PermillageScenario(t *testing.T) {
	monthly := core.Apportion(85000, core.QuotaPermillage, 166.67)
	if monthly != 14167 {
		t.Fatalf("Apportion = %d, want 14167", monthly)
	}
	payments := append(paidMonths(1, 2025, 14167, 1, 2, 3, 4, 5),
		core.RegularPayment{ApartmentID: 1, Month: 6, Year: 2025, Status: core.PaymentPending})

	got := EvaluateRegular(payments, monthly, 6)
	want := core.RegularSummary{
		MonthlyQuota:  14167,
		DueToDate:     85002,
		Paid:          70835,
		Balance:       14167,
		OverdueMonths: 1,
	}
	if got != want {
		t.Errorf("EvaluateRegular() = %+v, want %+v", got, want)
	}
}

func TestEvaluateRegular(t *testing.T) {
	tests := []struct {
		name     string
		payments []core.RegularPayment
		monthly  int64
		cutoff   int
		want     core.RegularSummary
	}{
		{
			name:    "no records means every month overdue",
			monthly: 5000,
			cutoff:  3,
			want:    core.RegularSummary{MonthlyQuota: 5000, DueToDate: 15000, Balance: 15000, OverdueMonths: 3},
		},
		{
			name:     "current month paid",
			payments: paidMonths(1, 2025, 5000, 1, 2),
			monthly:  5000,
			cutoff:   2,
			want:     core.RegularSummary{MonthlyQuota: 5000, DueToDate: 10000, Paid: 10000, CurrentMonthPaid: true},
		},
		{
			name:     "overpayment floors at zero",
			payments: paidMonths(1, 2025, 9000, 1, 2),
			monthly:  5000,
			cutoff:   2,
			want:     core.RegularSummary{MonthlyQuota: 5000, DueToDate: 10000, Paid: 18000, Balance: 0, CurrentMonthPaid: true},
		},
		{
			name: "late and pending are not paid",
			payments: []core.RegularPayment{
				{Month: 1, Status: core.PaymentLate, Amount: 5000},
				{Month: 2, Status: core.PaymentPending, Amount: 5000},
			},
			monthly: 5000,
			cutoff:  2,
			want:    core.RegularSummary{MonthlyQuota: 5000, DueToDate: 10000, Balance: 10000, OverdueMonths: 2},
		},
		{
			name:     "months after cutoff ignored",
			payments: paidMonths(1, 2025, 5000, 7, 8),
			monthly:  5000,
			cutoff:   1,
			want:     core.RegularSummary{MonthlyQuota: 5000, DueToDate: 5000, Balance: 5000, OverdueMonths: 1},
		},
		{
			name:     "january before due day",
			payments: paidMonths(1, 2025, 5000, 1),
			monthly:  5000,
			cutoff:   0,
			want:     core.RegularSummary{MonthlyQuota: 5000},
		},
		{
			name: "last record for a month wins",
			payments: []core.RegularPayment{
				{Month: 1, Status: core.PaymentPending},
				{Month: 1, Status: core.PaymentPaid, Amount: 5000},
			},
			monthly: 5000,
			cutoff:  1,
			want:    core.RegularSummary{MonthlyQuota: 5000, DueToDate: 5000, Paid: 5000, CurrentMonthPaid: true},
		},
		{
			name:     "partial amount marked paid",
			payments: paidMonths(1, 2025, 3000, 1),
			monthly:  5000,
			cutoff:   1,
			want:     core.RegularSummary{MonthlyQuota: 5000, DueToDate: 5000, Paid: 3000, Balance: 2000, CurrentMonthPaid: true},
		},
		{
			name: "out of range months ignored",
			payments: []core.RegularPayment{
				{Month: 0, Status: core.PaymentPaid, Amount: 5000},
				{Month: 13, Status: core.PaymentPaid, Amount: 5000},
			},
			monthly: 5000,
			cutoff:  1,
			want:    core.RegularSummary{MonthlyQuota: 5000, DueToDate: 5000, Balance: 5000, OverdueMonths: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRegular(tt.payments, tt.monthly, tt.cutoff)
			if got != tt.want {
				t.Errorf("EvaluateRegular() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluateRegular_Properties(t *testing.T) {
	payments := []core.RegularPayment{
		{Month: 1, Status: core.PaymentPaid, Amount: 20000},
		{Month: 3, Status: core.PaymentPaid, Amount: 1},
		{Month: 4, Status: core.PaymentLate, Amount: 0},
		{Month: 6, Status: core.PaymentPaid, Amount: 7000},
	}
	snapshot := append([]core.RegularPayment(nil), payments...)

	for cutoff := 0; cutoff <= 12; cutoff++ {
		first := EvaluateRegular(payments, 7000, cutoff)
		second := EvaluateRegular(payments, 7000, cutoff)
		if first != second {
			t.Fatalf("cutoff %d: not idempotent: %+v vs %+v", cutoff, first, second)
		}
		if first.Balance < 0 {
			t.Errorf("cutoff %d: negative balance %d", cutoff, first.Balance)
		}

		paid := 0
		for _, p := range payments {
			if p.Month <= cutoff && p.Status == core.PaymentPaid {
				paid++
			}
		}
		if first.OverdueMonths != cutoff-paid {
			t.Errorf("cutoff %d: OverdueMonths = %d, want %d", cutoff, first.OverdueMonths, cutoff-paid)
		}
	}

	if !reflect.DeepEqual(payments, snapshot) {
		t.Error("EvaluateRegular mutated its input")
	}
}

func TestEvaluateRegularBuilding(t *testing.T) {
	dues := map[int64]int64{1: 14167, 2: 70833}
	payments := append(paidMonths(1, 2025, 14167, 1, 2, 3, 4, 5), paidMonths(2, 2025, 70833, 1, 2, 3, 4, 5, 6)...)
	payments = append(payments, core.RegularPayment{ApartmentID: 1, Month: 6, Year: 2025, Status: core.PaymentLate, Amount: 14167})

	got := EvaluateRegularBuilding(payments, dues, 6)
	want := core.RegularSummary{
		MonthlyQuota: 85000,
		DueToDate:    510000,
		Paid:         495833,
		Balance:      14167,
	}
	if got != want {
		t.Errorf("EvaluateRegularBuilding() = %+v, want %+v", got, want)
	}
}

func TestEvaluateRegularBuilding_LatestRecordPerApartment(t *testing.T) {
	dues := map[int64]int64{1: 1000, 2: 1000}
	payments := []core.RegularPayment{
		{ApartmentID: 1, Month: 1, Status: core.PaymentPaid, Amount: 1000},
		{ApartmentID: 1, Month: 1, Status: core.PaymentPending, Amount: 0},
		{ApartmentID: 2, Month: 1, Status: core.PaymentPaid, Amount: 1000},
		{ApartmentID: 2, Month: 1, Status: core.PaymentPaid, Amount: 1500},
	}

	got := EvaluateRegularBuilding(payments, dues, 1)
	if got.Paid != 1500 || got.Balance != 500 {
		t.Errorf("EvaluateRegularBuilding() = %+v, want paid 1500 balance 500", got)
	}
	if got.OverdueMonths != 0 {
		t.Errorf("building view should not count overdue months, got %d", got.OverdueMonths)
	}
}

func TestEvaluateRegularBuilding_Overpaid(t *testing.T) {
	got := EvaluateRegularBuilding(paidMonths(1, 2025, 5000, 1), map[int64]int64{1: 100}, 1)
	if got.Balance != 0 {
		t.Errorf("Balance = %d, want 0", got.Balance)
	}
}
