// Package services holds the application services sitting between the HTTP
// layer and the store. Services own validation, referential-integrity
// checks, and cascade orchestration; the store stays a thin persistence
// layer.
package services

import (
	"context"
	"log/slog"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
)

// IntegrityStore is the subset of the store the cascade orchestrator needs.
type IntegrityStore interface {
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) (int64, error)
	DeleteExpensesByCategory(ctx context.Context, categoryID int64) (int64, error)

	GetUser(ctx context.Context, id int64) (core.User, error)
	DeleteUser(ctx context.Context, id int64) (int64, error)
	ListCategoryIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	DeleteExpensesByUserOrCategories(ctx context.Context, userID int64, categoryIDs []int64) (int64, error)
	DeleteCategoriesByUser(ctx context.Context, userID int64) (int64, error)
}

// CategoryCascadeResult describes a completed category delete.
type CategoryCascadeResult struct {
	Deleted         core.Category `json:"deleted"`
	RemovedExpenses int64         `json:"removed_expenses"`
}

// UserCascadeResult describes a completed user delete.
type UserCascadeResult struct {
	DeletedUser       core.User `json:"deleted_user"`
	RemovedCategories int64     `json:"removed_categories"`
	RemovedExpenses   int64     `json:"removed_expenses"`
}

// IntegrityService runs the multi-step cascade deletes. The store schema
// has no foreign keys, so ordering lives here: the parent row goes first,
// dependents after, and a failure partway is reported as a CascadeError
// carrying the counts completed so far. Steps are idempotent, so the
// caller can retry the whole operation.
type IntegrityService struct {
	store     IntegrityStore
	publisher *amqp.Client
	logger    *slog.Logger
}

// NewIntegrityService creates the cascade orchestrator. publisher may be
// nil; cascade audit events are then skipped.
func NewIntegrityService(store IntegrityStore, publisher *amqp.Client, logger *slog.Logger) *IntegrityService {
	return &IntegrityService{store: store, publisher: publisher, logger: logger}
}

// DeleteCategory removes a category and every expense that referenced it.
func (s *IntegrityService) DeleteCategory(ctx context.Context, id int64) (CategoryCascadeResult, error) {
	cat, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return CategoryCascadeResult{}, err
	}

	if _, err := s.store.DeleteCategory(ctx, id); err != nil {
		return CategoryCascadeResult{}, err
	}

	removed, err := s.store.DeleteExpensesByCategory(ctx, id)
	if err != nil {
		return CategoryCascadeResult{}, &core.CascadeError{
			Op:                "delete category",
			CategoriesRemoved: 1,
			ExpensesRemoved:   removed,
			Err:               err,
		}
	}

	s.logger.InfoContext(ctx, "category cascade complete",
		slog.Int64("category_id", id),
		slog.Int64("expenses_removed", removed))
	s.publishCascade(ctx, amqp.EntityCategory, id, 1, removed)

	return CategoryCascadeResult{Deleted: cat, RemovedExpenses: removed}, nil
}

// DeleteUser removes a user, the categories they own, and every expense
// referencing either the user or one of those categories.
func (s *IntegrityService) DeleteUser(ctx context.Context, id int64) (UserCascadeResult, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return UserCascadeResult{}, err
	}

	if _, err := s.store.DeleteUser(ctx, id); err != nil {
		return UserCascadeResult{}, err
	}

	// The category ids are plain data; collecting them after the user row
	// is gone is safe because nothing else cascades off the user.
	catIDs, err := s.store.ListCategoryIDsByUser(ctx, id)
	if err != nil {
		return UserCascadeResult{}, &core.CascadeError{Op: "delete user", Err: err}
	}

	expensesRemoved, err := s.store.DeleteExpensesByUserOrCategories(ctx, id, catIDs)
	if err != nil {
		return UserCascadeResult{}, &core.CascadeError{Op: "delete user", Err: err}
	}

	categoriesRemoved, err := s.store.DeleteCategoriesByUser(ctx, id)
	if err != nil {
		return UserCascadeResult{}, &core.CascadeError{
			Op:              "delete user",
			ExpensesRemoved: expensesRemoved,
			Err:             err,
		}
	}

	s.logger.InfoContext(ctx, "user cascade complete",
		slog.Int64("user_id", id),
		slog.Int64("categories_removed", categoriesRemoved),
		slog.Int64("expenses_removed", expensesRemoved))
	s.publishCascade(ctx, amqp.EntityUser, id, categoriesRemoved, expensesRemoved)

	return UserCascadeResult{
		DeletedUser:       user,
		RemovedCategories: categoriesRemoved,
		RemovedExpenses:   expensesRemoved,
	}, nil
}

// publishCascade emits an audit event after a successful cascade. Publish
// failures are logged and swallowed; the delete already happened.
func (s *IntegrityService) publishCascade(ctx context.Context, entity string, id, categories, expenses int64) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewCascadeEvent(entity, id, categories, expenses)
	if err := s.publisher.PublishCascadeEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cascade event",
			slog.String("entity", entity),
			slog.Int64("entity_id", id),
			slog.String("error", err.Error()))
	}
}
