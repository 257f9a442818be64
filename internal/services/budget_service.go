package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"centsplit/internal/core"
	"centsplit/internal/metrics"
	"centsplit/internal/report"
	"centsplit/internal/storage"
)

// BudgetService answers budget queries for a month. Share configuration is
// loaded fresh for every request so rule changes take effect immediately.
type BudgetService struct {
	storage *storage.SQLiteRepository
	writer  report.Writer
}

func NewBudgetService(storage *storage.SQLiteRepository, writer report.Writer) *BudgetService {
	return &BudgetService{
		storage: storage,
		writer:  writer,
	}
}

// MonthSummary returns the shared/personal split totals for a month.
func (s *BudgetService) MonthSummary(ctx context.Context, year, month int) (core.ShareSummary, error) {
	txns, config, err := s.loadMonth(ctx, year, month)
	if err != nil {
		return core.ShareSummary{}, err
	}
	return core.Summarize(txns, config), nil
}

// CategoryTotal returns the spending magnitude for one category in a month,
// from the requested budget view.
func (s *BudgetService) CategoryTotal(ctx context.Context, year, month int, categoryName string, view core.BudgetView) (core.Money, error) {
	txns, config, err := s.loadMonth(ctx, year, month)
	if err != nil {
		return core.Money{}, err
	}
	total := core.CategorySpendingTotal(txns, categoryName, config, view)
	return core.Money{Cents: total}, nil
}

// MonthOverview returns the month total plus per-category totals for a view,
// largest category first.
func (s *BudgetService) MonthOverview(ctx context.Context, year, month int, view core.BudgetView) (core.MonthOverview, error) {
	txns, config, err := s.loadMonth(ctx, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}

	overview := core.MonthOverview{
		Year:  year,
		Month: month,
		View:  view,
	}

	names := make(map[string]struct{})
	for _, tx := range txns {
		names[tx.CategoryName] = struct{}{}
	}

	totals := make(map[string]int64)
	for name := range names {
		total := core.CategorySpendingTotal(txns, name, config, view)
		if total == 0 {
			continue
		}
		display := name
		if display == "" {
			// Not yet categorized; group with the resolver's fallback bucket
			// so the overview covers the whole month.
			display = core.CategoryDisplayName(core.CategoryUncategorized)
		}
		totals[display] += total
		overview.Total.Cents += total
	}

	for name, total := range totals {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: total},
		})
	}

	sort.Slice(overview.ByCategory, func(i, j int) bool {
		if overview.ByCategory[i].Amount.Cents != overview.ByCategory[j].Amount.Cents {
			return overview.ByCategory[i].Amount.Cents > overview.ByCategory[j].Amount.Cents
		}
		return overview.ByCategory[i].Name < overview.ByCategory[j].Name
	})

	return overview, nil
}

// ProposedSplit returns the income-proportional share suggestion for the
// household, as the user's percentage of shared spending.
func (s *BudgetService) ProposedSplit(userIncomeCents, partnerIncomeCents int64) int64 {
	return core.IncomeProportionalSplit(userIncomeCents, partnerIncomeCents)
}

// ExportMonthReport writes the month summary and shared-view category totals
// to the configured report destination.
func (s *BudgetService) ExportMonthReport(ctx context.Context, year, month int) (string, error) {
	if s.writer == nil {
		return "", fmt.Errorf("no report writer configured")
	}

	summary, err := s.MonthSummary(ctx, year, month)
	if err != nil {
		metrics.ReportsExported.WithLabelValues("error").Inc()
		return "", err
	}
	overview, err := s.MonthOverview(ctx, year, month, core.ViewOurs)
	if err != nil {
		metrics.ReportsExported.WithLabelValues("error").Inc()
		return "", err
	}

	ref, err := s.writer.WriteMonthReport(ctx, report.MonthReport{
		Year:       year,
		Month:      month,
		Summary:    summary,
		Categories: overview.ByCategory,
	})
	if err != nil {
		metrics.ReportsExported.WithLabelValues("error").Inc()
		return "", fmt.Errorf("export month report: %w", err)
	}

	metrics.ReportsExported.WithLabelValues("success").Inc()
	slog.InfoContext(ctx, "Month report exported",
		"year", year,
		"month", month,
		"ref", ref)
	return ref, nil
}

func (s *BudgetService) loadMonth(ctx context.Context, year, month int) ([]core.Transaction, core.ShareConfig, error) {
	txns, err := s.storage.ListTransactionsByMonth(ctx, year, month)
	if err != nil {
		return nil, core.ShareConfig{}, fmt.Errorf("list month transactions: %w", err)
	}
	config, err := s.storage.LoadShareConfig(ctx)
	if err != nil {
		return nil, core.ShareConfig{}, fmt.Errorf("load share config: %w", err)
	}
	return txns, config, nil
}
