package services

import "gestmais/internal/core"

// EvaluateRegular computes one apartment's regular quota position for a year.
//
// Months 1..cutoffMonth are due at monthlyDue each. A month counts as paid only
// when its record has status paid, in which case the recorded amount is added
// to Paid; every other month in range is overdue. Months without a record are
// unpaid. Balance never goes below zero: overpayment is not carried as credit.
func EvaluateRegular(payments []core.RegularPayment, monthlyDue int64, cutoffMonth int) core.RegularSummary {
	cutoffMonth = clampMonth(cutoffMonth)
	byMonth := indexByMonth(payments)

	sum := core.RegularSummary{MonthlyQuota: monthlyDue}
	for m := 1; m <= cutoffMonth; m++ {
		sum.DueToDate += monthlyDue
		rec, ok := byMonth[m]
		if ok && rec.Status == core.PaymentPaid {
			sum.Paid += rec.Amount
			if m == cutoffMonth {
				sum.CurrentMonthPaid = true
			}
			continue
		}
		sum.OverdueMonths++
	}
	sum.Balance = floorZero(sum.DueToDate - sum.Paid)
	return sum
}

// EvaluateRegularBuilding runs the same loop for a whole building: each month
// is due at the sum of every apartment's apportioned quota, and paid amounts
// are summed across apartments. Overdue months are not tracked at this level.
func EvaluateRegularBuilding(payments []core.RegularPayment, monthlyDues map[int64]int64, cutoffMonth int) core.RegularSummary {
	cutoffMonth = clampMonth(cutoffMonth)

	var monthly int64
	for _, due := range monthlyDues {
		monthly += due
	}

	paidByMonth := make(map[int]int64, 12)
	for _, p := range latestPerApartmentMonth(payments) {
		if p.Status == core.PaymentPaid {
			paidByMonth[p.Month] += p.Amount
		}
	}

	sum := core.RegularSummary{MonthlyQuota: monthly}
	for m := 1; m <= cutoffMonth; m++ {
		sum.DueToDate += monthly
		sum.Paid += paidByMonth[m]
	}
	sum.Balance = floorZero(sum.DueToDate - sum.Paid)
	return sum
}

// indexByMonth keeps the last record seen for each month.
func indexByMonth(payments []core.RegularPayment) map[int]core.RegularPayment {
	idx := make(map[int]core.RegularPayment, len(payments))
	for _, p := range payments {
		if p.Month < 1 || p.Month > 12 {
			continue
		}
		idx[p.Month] = p
	}
	return idx
}

func latestPerApartmentMonth(payments []core.RegularPayment) []core.RegularPayment {
	type key struct {
		apt   int64
		month int
	}
	seen := make(map[key]int, len(payments))
	out := make([]core.RegularPayment, 0, len(payments))
	for _, p := range payments {
		if p.Month < 1 || p.Month > 12 {
			continue
		}
		k := key{p.ApartmentID, p.Month}
		if i, ok := seen[k]; ok {
			out[i] = p
			continue
		}
		seen[k] = len(out)
		out = append(out, p)
	}
	return out
}

func clampMonth(m int) int {
	if m < 0 {
		return 0
	}
	if m > 12 {
		return 12
	}
	return m
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
