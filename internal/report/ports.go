package report

import (
	"context"

	"centsplit/internal/core"
)

// MonthReport is one exported row set: the month's share summary plus
// per-category totals for the shared view.
type MonthReport struct {
	Year       int
	Month      int
	Summary    core.ShareSummary
	Categories []core.CategoryAmount
}

// Writer exports a month report to an external destination.
type Writer interface {
	WriteMonthReport(ctx context.Context, r MonthReport) (ref string, err error)
}
