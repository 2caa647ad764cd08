package services

import "gestmais/internal/core"

// User-facing status messages.
const (
	MessageSettled  = "Tem as quotas em dia."
	MessagePending  = "Tem pagamentos pendentes. Regularize em breve."
	MessageOverdue  = "Tem pagamentos em atraso. Regularize com urgência."
	MessageBuilding = "Existem quotas por receber neste edifício."
	MessageBuildOK  = "Todas as quotas do edifício estão em dia."
)

// StatusPolicy holds the thresholds separating warning from critical.
type StatusPolicy struct {
	// WarningMaxOverdue is the largest overdue month+installment count still classed as warning.
	WarningMaxOverdue int
	// WarningMaxBalance is the exclusive upper bound, in cents, of a warning balance.
	WarningMaxBalance int64
}

// DefaultStatusPolicy returns the standard thresholds: up to 2 overdue units
// and less than €500,00 outstanding is a warning.
func DefaultStatusPolicy() StatusPolicy {
	return StatusPolicy{
		WarningMaxOverdue: 2,
		WarningMaxBalance: 50000,
	}
}

// Classify derives an individual (resident or apartment) status.
func (p StatusPolicy) Classify(totalBalance int64, overdueUnits int) (core.Status, string) {
	switch {
	case totalBalance <= 0 && overdueUnits == 0:
		return core.StatusOK, MessageSettled
	case overdueUnits <= p.WarningMaxOverdue && totalBalance < p.WarningMaxBalance:
		return core.StatusWarning, MessagePending
	default:
		return core.StatusCritical, MessageOverdue
	}
}

// ClassifyBuilding derives the building-level status, which has no critical tier.
func ClassifyBuilding(totalBalance int64) (core.Status, string) {
	if totalBalance <= 0 {
		return core.StatusOK, MessageBuildOK
	}
	return core.StatusWarning, MessageBuilding
}
