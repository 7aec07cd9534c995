package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/core"
)

// ReportStore is the read-only subset of the store the reports need.
type ReportStore interface {
	TotalReport(ctx context.Context, f core.Filter) (core.TotalReport, error)
	CategoryReport(ctx context.Context, f core.Filter) ([]core.CategoryReportRow, error)
	NameReport(ctx context.Context, f core.Filter) ([]core.NameReportRow, error)
	HighestExpense(ctx context.Context, f core.Filter) (*core.Expense, error)
}

// ReportService answers the aggregate queries. Every report runs against
// live data with the same filter predicate, so totals agree across the
// variants for a given snapshot.
type ReportService struct {
	store  ReportStore
	logger *slog.Logger
}

func NewReportService(store ReportStore, logger *slog.Logger) *ReportService {
	return &ReportService{store: store, logger: logger}
}

func (s *ReportService) Total(ctx context.Context, p core.FilterParams) (core.TotalReport, error) {
	f, err := core.BuildFilter(p)
	if err != nil {
		return core.TotalReport{}, err
	}
	return s.store.TotalReport(ctx, f)
}

func (s *ReportService) ByCategory(ctx context.Context, p core.FilterParams) ([]core.CategoryReportRow, error) {
	f, err := core.BuildFilter(p)
	if err != nil {
		return nil, err
	}
	return s.store.CategoryReport(ctx, f)
}

func (s *ReportService) ByName(ctx context.Context, p core.FilterParams) ([]core.NameReportRow, error) {
	f, err := core.BuildFilter(p)
	if err != nil {
		return nil, err
	}
	return s.store.NameReport(ctx, f)
}

func (s *ReportService) Highest(ctx context.Context, p core.FilterParams) (*core.Expense, error) {
	f, err := core.BuildFilter(p)
	if err != nil {
		return nil, err
	}
	return s.store.HighestExpense(ctx, f)
}

// Overview runs all four report variants concurrently for one filter and
// bundles the results. A failure in any variant fails the whole call.
func (s *ReportService) Overview(ctx context.Context, p core.FilterParams) (core.Overview, error) {
	f, err := core.BuildFilter(p)
	if err != nil {
		return core.Overview{}, err
	}

	var ov core.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.store.TotalReport(gctx, f)
		if err != nil {
			return fmt.Errorf("total report: %w", err)
		}
		ov.Total = total
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.CategoryReport(gctx, f)
		if err != nil {
			return fmt.Errorf("category report: %w", err)
		}
		ov.ByCategory = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.NameReport(gctx, f)
		if err != nil {
			return fmt.Errorf("name report: %w", err)
		}
		ov.ByName = rows
		return nil
	})
	g.Go(func() error {
		highest, err := s.store.HighestExpense(gctx, f)
		if err != nil {
			return fmt.Errorf("highest expense: %w", err)
		}
		ov.Highest = highest
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.Overview{}, err
	}
	return ov, nil
}
