// Package services provides the payment status engine and its orchestration.
//
// This file implements the Strategy Pattern for deciding whether an
// extraordinary installment is due. Two rules exist because the resident view
// and the apartment view historically disagree near month boundaries; callers
// pick one per entry point.
package services

import (
	"fmt"
	"strings"

	"gestmais/internal/core"
)

// DueRule names an installment dueness strategy.
type DueRule string

const (
	// DueRuleDayAware honours the project's payment due day within the due month.
	DueRuleDayAware DueRule = "day-aware"
	// DueRuleMonthOnly treats the whole due month as due from its first day.
	DueRuleMonthOnly DueRule = "month-only"
)

// DueChecker is the strategy interface for checking if an installment is due.
type DueChecker interface {
	// IsDue reports whether an installment falling in month due, payable on
	// dueDay, is due as of asOf.
	IsDue(due core.YearMonth, dueDay int, asOf core.AsOf) bool
}

// DayAwareChecker implements DueChecker using the day of month.
type DayAwareChecker struct{}

// IsDue returns true for any earlier month, and for the current month once
// the due day has been reached.
func (DayAwareChecker) IsDue(due core.YearMonth, dueDay int, asOf core.AsOf) bool {
	current := core.YearMonth{Year: asOf.Year, Month: asOf.Month}
	if due.Before(current) {
		return true
	}
	return due == current && asOf.Day >= dueDay
}

// MonthOnlyChecker implements DueChecker at month granularity.
type MonthOnlyChecker struct{}

// IsDue returns true for any month up to and including the current one.
func (MonthOnlyChecker) IsDue(due core.YearMonth, _ int, asOf core.AsOf) bool {
	return !(core.YearMonth{Year: asOf.Year, Month: asOf.Month}).Before(due)
}

// dueStrategies maps rule names to their checkers.
var dueStrategies = map[DueRule]DueChecker{
	DueRuleDayAware:  DayAwareChecker{},
	DueRuleMonthOnly: MonthOnlyChecker{},
}

// GetDueChecker returns the checker for a rule.
func GetDueChecker(rule DueRule) (DueChecker, error) {
	checker, ok := dueStrategies[rule]
	if !ok {
		return nil, fmt.Errorf("unknown due rule: %s", rule)
	}
	return checker, nil
}

// RegisterDueChecker registers a checker under a new rule name.
func RegisterDueChecker(rule DueRule, checker DueChecker) {
	dueStrategies[rule] = checker
}

// ParseDueRule accepts the rule names used in configuration. An empty string
// means "per call site" and is returned as the empty rule.
func ParseDueRule(s string) (DueRule, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "per-call-site" {
		return "", nil
	}
	rule := DueRule(s)
	if _, ok := dueStrategies[rule]; !ok {
		return "", fmt.Errorf("unknown due rule: %s", s)
	}
	return rule, nil
}

// RegularCutoff returns the last month of the year whose regular quota is due.
// The current month counts once the building's payment due day is reached;
// before that the cutoff is the previous month, which is 0 in January.
func RegularCutoff(asOf core.AsOf, dueDay int) int {
	if asOf.Day >= dueDay {
		return asOf.Month
	}
	return asOf.Month - 1
}
