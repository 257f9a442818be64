package report

import (
	"context"
	"fmt"
	"sync"
)

// MemoryWriter collects month reports in memory. Used by tests and local
// development when no spreadsheet is configured.
type MemoryWriter struct {
	mu      sync.Mutex
	Reports []MonthReport
}

var _ Writer = (*MemoryWriter)(nil)

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (w *MemoryWriter) WriteMonthReport(_ context.Context, r MonthReport) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Reports = append(w.Reports, r)
	return fmt.Sprintf("memory:%d", len(w.Reports)), nil
}
