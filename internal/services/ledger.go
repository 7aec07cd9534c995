package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// LedgerStore is the subset of the store the ledger CRUD needs.
type LedgerStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	CategoryExistsByName(ctx context.Context, name string) (bool, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategory(ctx context.Context, id int64, u storage.CategoryUpdate) (core.Category, error)

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, u storage.ExpenseUpdate) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) (int64, error)
	ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error)
}

// LedgerService owns the category and expense write paths plus the plain
// reads. Deletes that cascade live in IntegrityService instead.
type LedgerService struct {
	store  LedgerStore
	logger *slog.Logger
}

func NewLedgerService(store LedgerStore, logger *slog.Logger) *LedgerService {
	return &LedgerService{store: store, logger: logger}
}

// CreateCategory validates and inserts a category. The name check here is
// advisory; the unique index catches the race and the store translates it
// to the same duplicate error.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	exists, err := s.store.CategoryExistsByName(ctx, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return core.Category{}, core.ErrDuplicateCategory
	}

	return s.store.CreateCategory(ctx, c)
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// UpdateCategory applies a partial update. An update naming no fields is a
// validation error, not a silent no-op.
func (s *LedgerService) UpdateCategory(ctx context.Context, id int64, u storage.CategoryUpdate) (core.Category, error) {
	if u.Name == nil && u.Description == nil {
		return core.Category{}, core.ErrNoFieldsToUpdate
	}
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		if len(trimmed) < 3 {
			return core.Category{}, core.ErrCategoryNameTooShort
		}
		u.Name = &trimmed
	}
	return s.store.UpdateCategory(ctx, id, u)
}

// CreateExpense validates the expense and checks the referenced category
// exists before inserting. A missing category is the caller's mistake and
// surfaces as not-found.
func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if _, err := s.store.GetCategory(ctx, e.CategoryID); err != nil {
		return core.Expense{}, fmt.Errorf("expense category %d: %w", e.CategoryID, err)
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "expense recorded",
		slog.Int64("expense_id", created.ID),
		slog.String("name", created.Name),
		slog.Int64("amount_cents", created.Amount.Cents))
	return created, nil
}

func (s *LedgerService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// UpdateExpense applies a partial update, revalidating whatever changes.
// A new category id must exist before the row is touched.
func (s *LedgerService) UpdateExpense(ctx context.Context, id int64, u storage.ExpenseUpdate) (core.Expense, error) {
	if u.Name == nil && u.AmountCents == nil && u.CategoryID == nil && u.Description == nil && u.SpentAt == nil {
		return core.Expense{}, core.ErrNoFieldsToUpdate
	}
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		if trimmed == "" {
			return core.Expense{}, core.ErrEmptyExpenseName
		}
		u.Name = &trimmed
	}
	if u.AmountCents != nil && *u.AmountCents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}
	if u.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, *u.CategoryID); err != nil {
			return core.Expense{}, fmt.Errorf("expense category %d: %w", *u.CategoryID, err)
		}
	}
	if u.SpentAt != nil {
		utc := u.SpentAt.UTC()
		u.SpentAt = &utc
	}
	return s.store.UpdateExpense(ctx, id, u)
}

// DeleteExpense removes a single expense. Nothing cascades off an expense.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	rows, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ListExpenses returns matching expenses newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, p core.FilterParams) ([]core.Expense, error) {
	f, err := core.BuildFilter(p)
	if err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, f)
}
