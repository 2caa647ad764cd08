package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gestmais/internal/core"
	"gestmais/internal/sheets"
)

// Writer keeps the last statement written per tab.
type Writer struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes int
}

var _ sheets.StatementWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{tabs: make(map[string][][]any)}
}

// WriteStatement replaces the tab contents and returns a synthetic reference.
func (w *Writer) WriteStatement(_ context.Context, year int, ov core.BuildingOverview) (string, error) {
	if ov.BuildingID <= 0 {
		return "", errors.New("statement without building")
	}
	tab := sheets.StatementTab(year, ov.Name)
	rows := sheets.StatementRows(ov)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs[tab] = rows
	w.writes++
	return fmt.Sprintf("mem:%s!A1:H%d", tab, len(rows)), nil
}

// Tab returns a copy of the rows last written to tab.
func (w *Writer) Tab(tab string) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[tab]
	if !ok {
		return nil, false
	}
	return append([][]any(nil), rows...), true
}

// Writes counts every successful WriteStatement call.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
