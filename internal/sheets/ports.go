package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"gestmais/internal/core"
)

// Ports for outbound adapters.
type (
	// StatementWriter replaces the statement tab for one building and year.
	StatementWriter interface {
		WriteStatement(ctx context.Context, year int, overview core.BuildingOverview) (ref string, err error)
	}
)

// StatementHeader is the first row of every statement tab.
var StatementHeader = []any{
	"Fração", "Residente", "Permilagem", "Quota mensal",
	"Em dívida (quotas)", "Em dívida (extraordinárias)", "Total em dívida", "Estado",
}

// StatementTab returns "<year> <building>" unless the name already starts with
// that same year. Characters that Sheets rejects in tab titles become spaces.
func StatementTab(year int, building string) string {
	base := strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':':
			return ' '
		}
		return r
	}, building))
	if base == "" {
		return strconv.Itoa(year)
	}
	prefix := strconv.Itoa(year)
	if base == prefix || strings.HasPrefix(base, prefix+" ") {
		return base
	}
	return fmt.Sprintf("%s %s", prefix, base)
}

// StatementRows renders the overview as header, one row per apartment and a
// closing building total. Amounts are plain euro decimals so spreadsheets
// parse them as numbers.
func StatementRows(overview core.BuildingOverview) [][]any {
	rows := make([][]any, 0, len(overview.Apartments)+2)
	rows = append(rows, StatementHeader)
	for _, line := range overview.Apartments {
		s := line.Summary
		rows = append(rows, []any{
			line.Unit,
			line.ResidentName,
			decimal.NewFromFloat(line.Permillage).StringFixed(2),
			euros(s.Regular.MonthlyQuota),
			euros(s.Regular.Balance),
			euros(s.Extraordinary.Balance),
			euros(s.TotalBalance),
			string(s.Status),
		})
	}
	total := overview.Summary
	rows = append(rows, []any{
		"Total",
		overview.Name,
		"",
		euros(total.Regular.MonthlyQuota),
		euros(total.Regular.Balance),
		euros(total.Extraordinary.Balance),
		euros(total.TotalBalance),
		string(total.Status),
	})
	return rows
}

func euros(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
