package services

import "gestmais/internal/core"

// ScheduledInstallment is an installment joined with its project's schedule.
type ScheduledInstallment struct {
	core.ExtraordinaryInstallment
	StartMonth int
	StartYear  int
	DueDay     int
}

// DueMonth returns the calendar month the installment falls due in.
func (s ScheduledInstallment) DueMonth() core.YearMonth {
	return core.InstallmentDue(s.StartMonth, s.StartYear, s.Number)
}

// ScheduleInstallments attaches each installment to its project's schedule.
// Installments of projects not in the list (closed ones) are dropped.
func ScheduleInstallments(projects []core.ExtraordinaryProject, items []core.ExtraordinaryInstallment) []ScheduledInstallment {
	byID := make(map[int64]core.ExtraordinaryProject, len(projects))
	for _, p := range projects {
		if p.Status != core.ProjectActive {
			continue
		}
		byID[p.ID] = p
	}

	out := make([]ScheduledInstallment, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProjectID]
		if !ok {
			continue
		}
		out = append(out, ScheduledInstallment{
			ExtraordinaryInstallment: it,
			StartMonth:               p.StartMonth,
			StartYear:                p.StartYear,
			DueDay:                   p.PaymentDueDay,
		})
	}
	return out
}

// EvaluateExtraordinary computes the extraordinary quota position for the given
// installments, which may span one apartment or a whole building.
//
// Only installments the checker considers due contribute. A due installment is
// overdue when it is not marked paid and less than the expected amount has been
// paid. ActiveProjects counts the distinct projects among the input items.
// Balance is not floored.
func EvaluateExtraordinary(items []ScheduledInstallment, asOf core.AsOf, checker DueChecker) core.ExtraordinarySummary {
	var sum core.ExtraordinarySummary
	projects := make(map[int64]struct{})

	for _, it := range items {
		projects[it.ProjectID] = struct{}{}
		if !checker.IsDue(it.DueMonth(), it.DueDay, asOf) {
			continue
		}
		sum.DueToDate += it.Expected
		sum.Paid += it.Paid
		if it.Status != core.PaymentPaid && it.Paid < it.Expected {
			sum.OverdueInstallments++
		}
	}

	sum.ActiveProjects = len(projects)
	sum.Balance = sum.DueToDate - sum.Paid
	return sum
}
