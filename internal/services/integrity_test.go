package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"spendtrack/internal/core"
)

type fakeIntegrityStore struct {
	getCategory              func(ctx context.Context, id int64) (core.Category, error)
	deleteCategory           func(ctx context.Context, id int64) (int64, error)
	deleteExpensesByCategory func(ctx context.Context, categoryID int64) (int64, error)

	getUser                func(ctx context.Context, id int64) (core.User, error)
	deleteUser             func(ctx context.Context, id int64) (int64, error)
	listCategoryIDsByUser  func(ctx context.Context, userID int64) ([]int64, error)
	deleteExpensesByUnion  func(ctx context.Context, userID int64, categoryIDs []int64) (int64, error)
	deleteCategoriesByUser func(ctx context.Context, userID int64) (int64, error)
}

func (f *fakeIntegrityStore) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return f.getCategory(ctx, id)
}

func (f *fakeIntegrityStore) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	return f.deleteCategory(ctx, id)
}

func (f *fakeIntegrityStore) DeleteExpensesByCategory(ctx context.Context, categoryID int64) (int64, error) {
	return f.deleteExpensesByCategory(ctx, categoryID)
}

func (f *fakeIntegrityStore) GetUser(ctx context.Context, id int64) (core.User, error) {
	return f.getUser(ctx, id)
}

func (f *fakeIntegrityStore) DeleteUser(ctx context.Context, id int64) (int64, error) {
	return f.deleteUser(ctx, id)
}

func (f *fakeIntegrityStore) ListCategoryIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return f.listCategoryIDsByUser(ctx, userID)
}

func (f *fakeIntegrityStore) DeleteExpensesByUserOrCategories(ctx context.Context, userID int64, categoryIDs []int64) (int64, error) {
	return f.deleteExpensesByUnion(ctx, userID, categoryIDs)
}

func (f *fakeIntegrityStore) DeleteCategoriesByUser(ctx context.Context, userID int64) (int64, error) {
	return f.deleteCategoriesByUser(ctx, userID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeleteCategoryCascade(t *testing.T) {
	store := &fakeIntegrityStore{
		getCategory: func(_ context.Context, id int64) (core.Category, error) {
			return core.Category{ID: id, Name: "groceries"}, nil
		},
		deleteCategory: func(_ context.Context, _ int64) (int64, error) { return 1, nil },
		deleteExpensesByCategory: func(_ context.Context, _ int64) (int64, error) { return 7, nil },
	}
	svc := NewIntegrityService(store, nil, testLogger())

	res, err := svc.DeleteCategory(context.Background(), 3)
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if res.Deleted.Name != "groceries" {
		t.Errorf("deleted category name = %q, want groceries", res.Deleted.Name)
	}
	if res.RemovedExpenses != 7 {
		t.Errorf("removed expenses = %d, want 7", res.RemovedExpenses)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	store := &fakeIntegrityStore{
		getCategory: func(_ context.Context, _ int64) (core.Category, error) {
			return core.Category{}, core.ErrNotFound
		},
	}
	svc := NewIntegrityService(store, nil, testLogger())

	_, err := svc.DeleteCategory(context.Background(), 99)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategoryPartialFailure(t *testing.T) {
	dbErr := errors.New("disk I/O error")
	store := &fakeIntegrityStore{
		getCategory: func(_ context.Context, id int64) (core.Category, error) {
			return core.Category{ID: id}, nil
		},
		deleteCategory: func(_ context.Context, _ int64) (int64, error) { return 1, nil },
		deleteExpensesByCategory: func(_ context.Context, _ int64) (int64, error) {
			return 0, dbErr
		},
	}
	svc := NewIntegrityService(store, nil, testLogger())

	_, err := svc.DeleteCategory(context.Background(), 3)
	var cascadeErr *core.CascadeError
	if !errors.As(err, &cascadeErr) {
		t.Fatalf("expected CascadeError, got %v", err)
	}
	if cascadeErr.CategoriesRemoved != 1 {
		t.Errorf("categories removed = %d, want 1", cascadeErr.CategoriesRemoved)
	}
	if !errors.Is(err, dbErr) {
		t.Errorf("cascade error should wrap the store error")
	}
}

func TestDeleteUserCascade(t *testing.T) {
	var unionUserID int64
	var unionCatIDs []int64
	store := &fakeIntegrityStore{
		getUser: func(_ context.Context, id int64) (core.User, error) {
			return core.User{ID: id, Username: "alice"}, nil
		},
		deleteUser: func(_ context.Context, _ int64) (int64, error) { return 1, nil },
		listCategoryIDsByUser: func(_ context.Context, _ int64) ([]int64, error) {
			return []int64{4, 9}, nil
		},
		deleteExpensesByUnion: func(_ context.Context, userID int64, categoryIDs []int64) (int64, error) {
			unionUserID = userID
			unionCatIDs = categoryIDs
			return 12, nil
		},
		deleteCategoriesByUser: func(_ context.Context, _ int64) (int64, error) { return 2, nil },
	}
	svc := NewIntegrityService(store, nil, testLogger())

	res, err := svc.DeleteUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if res.DeletedUser.Username != "alice" {
		t.Errorf("deleted user = %q, want alice", res.DeletedUser.Username)
	}
	if res.RemovedCategories != 2 || res.RemovedExpenses != 12 {
		t.Errorf("counts = (%d categories, %d expenses), want (2, 12)",
			res.RemovedCategories, res.RemovedExpenses)
	}
	if unionUserID != 5 || len(unionCatIDs) != 2 {
		t.Errorf("union delete called with user %d and %d category ids, want 5 and 2",
			unionUserID, len(unionCatIDs))
	}
}

func TestDeleteUserCascadeFailsAfterExpenses(t *testing.T) {
	dbErr := errors.New("database is locked")
	store := &fakeIntegrityStore{
		getUser: func(_ context.Context, id int64) (core.User, error) {
			return core.User{ID: id}, nil
		},
		deleteUser: func(_ context.Context, _ int64) (int64, error) { return 1, nil },
		listCategoryIDsByUser: func(_ context.Context, _ int64) ([]int64, error) {
			return []int64{1}, nil
		},
		deleteExpensesByUnion: func(_ context.Context, _ int64, _ []int64) (int64, error) {
			return 8, nil
		},
		deleteCategoriesByUser: func(_ context.Context, _ int64) (int64, error) {
			return 0, dbErr
		},
	}
	svc := NewIntegrityService(store, nil, testLogger())

	_, err := svc.DeleteUser(context.Background(), 5)
	var cascadeErr *core.CascadeError
	if !errors.As(err, &cascadeErr) {
		t.Fatalf("expected CascadeError, got %v", err)
	}
	if cascadeErr.ExpensesRemoved != 8 {
		t.Errorf("expenses removed = %d, want 8", cascadeErr.ExpensesRemoved)
	}
	if cascadeErr.CategoriesRemoved != 0 {
		t.Errorf("categories removed = %d, want 0", cascadeErr.CategoriesRemoved)
	}
}

func TestDeleteUserCascadeFailsListingCategories(t *testing.T) {
	store := &fakeIntegrityStore{
		getUser: func(_ context.Context, id int64) (core.User, error) {
			return core.User{ID: id}, nil
		},
		deleteUser: func(_ context.Context, _ int64) (int64, error) { return 1, nil },
		listCategoryIDsByUser: func(_ context.Context, _ int64) ([]int64, error) {
			return nil, errors.New("disk I/O error")
		},
	}
	svc := NewIntegrityService(store, nil, testLogger())

	_, err := svc.DeleteUser(context.Background(), 5)
	var cascadeErr *core.CascadeError
	if !errors.As(err, &cascadeErr) {
		t.Fatalf("expected CascadeError, got %v", err)
	}
	if cascadeErr.CategoriesRemoved != 0 || cascadeErr.ExpensesRemoved != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)",
			cascadeErr.CategoriesRemoved, cascadeErr.ExpensesRemoved)
	}
}
