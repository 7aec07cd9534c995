// Package storage implements the persistence layer over SQLite. The schema
// carries no foreign keys; cascade behavior lives in the services layer, and
// every delete here reports affected rows so cascades stay idempotent and
// observable.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendtrack/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Repository struct {
	db *sql.DB
}

func Open(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// translateUnique maps a unique-index violation to the given domain error.
// Any other error passes through untouched.
func translateUnique(err, dup error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return dup
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Users

func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", translateUnique(err, core.ErrDuplicateUsername))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return core.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user password rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteUser removes the user row and reports how many rows went away.
// Deleting an absent user is a no-op, not an error; the caller decides what
// zero rows means.
func (r *Repository) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user rows: %w", err)
	}
	return n, nil
}

// Categories

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.Name, nullString(c.Description), c.UserID, now, now)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", translateUnique(err, core.ErrDuplicateCategory))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("create category id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name)
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, user_id, created_at, updated_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &desc, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Description = desc.String
	return c, nil
}

// CategoryExistsByName backs the advisory duplicate pre-check. The unique
// index remains the source of truth; a race between this check and the
// insert is resolved by the constraint, not here.
func (r *Repository) CategoryExistsByName(ctx context.Context, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("category exists by name: %w", err)
	}
	return true, nil
}

// ListCategories returns every category in creation order.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, user_id, created_at, updated_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Description = desc.String
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryUpdate carries partial-update fields; nil means leave unchanged.
type CategoryUpdate struct {
	Name        *string
	Description *string
}

func (r *Repository) UpdateCategory(ctx context.Context, id int64, u CategoryUpdate) (core.Category, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*u.Description))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", translateUnique(err, core.ErrDuplicateCategory))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("update category rows: %w", err)
	}
	if n == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return r.GetCategory(ctx, id)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete category rows: %w", err)
	}
	return n, nil
}

// ListCategoryIDsByUser returns the ids of every category owned by the user.
// The owning-user id is plain data, so this works even after the user row is
// gone.
func (r *Repository) ListCategoryIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM categories WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list category ids by user: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) DeleteCategoriesByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete categories by user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete categories by user rows: %w", err)
	}
	return n, nil
}

// Expenses

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	e.SpentAt = core.NormalizeSpentAt(e.SpentAt, now).UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (name, amount_cents, category_id, user_id, spent_at, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Amount.Cents, e.CategoryID, e.UserID, e.SpentAt, nullString(e.Description), now, now)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"id", id,
		"name", e.Name,
		"amount_cents", e.Amount.Cents,
		"category_id", e.CategoryID)

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return e, nil
}

const expenseColumns = `e.id, e.name, e.amount_cents, e.category_id, COALESCE(c.name, ''),
	e.user_id, e.spent_at, e.description, e.created_at, e.updated_at`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	var desc sql.NullString
	err := row.Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.CategoryID, &e.CategoryName,
		&e.UserID, &e.SpentAt, &desc, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Description = desc.String
	return e, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses e LEFT JOIN categories c ON c.id = e.category_id WHERE e.id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ExpenseUpdate carries partial-update fields; nil means leave unchanged.
type ExpenseUpdate struct {
	Name        *string
	AmountCents *int64
	CategoryID  *int64
	Description *string
	SpentAt     *time.Time
}

func (r *Repository) UpdateExpense(ctx context.Context, id int64, u ExpenseUpdate) (core.Expense, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.AmountCents != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, *u.AmountCents)
	}
	if u.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *u.CategoryID)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*u.Description))
	}
	if u.SpentAt != nil {
		sets = append(sets, "spent_at = ?")
		args = append(args, u.SpentAt.UTC())
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense rows: %w", err)
	}
	if n == 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return r.GetExpense(ctx, id)
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expense rows: %w", err)
	}
	return n, nil
}

func (r *Repository) DeleteExpensesByCategory(ctx context.Context, categoryID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE category_id = ?`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("delete expenses by category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expenses by category rows: %w", err)
	}
	return n, nil
}

// DeleteExpensesByUserOrCategories removes the union of expenses owned by the
// user and expenses filed under any of the given categories, in a single
// statement so the returned count never double-counts an expense matching
// both conditions.
func (r *Repository) DeleteExpensesByUserOrCategories(ctx context.Context, userID int64, categoryIDs []int64) (int64, error) {
	query := `DELETE FROM expenses WHERE user_id = ?`
	args := []any{userID}
	if len(categoryIDs) > 0 {
		query += ` OR category_id IN (?` + strings.Repeat(", ?", len(categoryIDs)-1) + `)`
		for _, id := range categoryIDs {
			args = append(args, id)
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expenses by user or categories: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expenses by user or categories rows: %w", err)
	}
	return n, nil
}

// ListExpenses returns matching expenses newest first, with the category
// name joined in.
func (r *Repository) ListExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	conds, args := expenseConds(f)
	query := `SELECT ` + expenseColumns + ` FROM expenses e LEFT JOIN categories c ON c.id = e.category_id`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY e.spent_at DESC, e.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// expenseConds builds the predicate for a normalized filter. Every report
// query and the expense listing share it, so all views over a fixed filter
// see the same expense set.
func expenseConds(f core.Filter) ([]string, []any) {
	var conds []string
	var args []any
	if !f.Start.IsZero() {
		conds = append(conds, "e.spent_at >= ?")
		args = append(args, f.Start.UTC())
	}
	if !f.End.IsZero() {
		conds = append(conds, "e.spent_at < ?")
		args = append(args, f.End.UTC())
	}
	if f.Search != "" {
		conds = append(conds, "instr(lower(e.name), lower(?)) > 0")
		args = append(args, f.Search)
	}
	if f.CategoryID != 0 {
		conds = append(conds, "e.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.UserID != 0 {
		conds = append(conds, "e.user_id = ?")
		args = append(args, f.UserID)
	}
	return conds, args
}

// Reports

func (r *Repository) TotalReport(ctx context.Context, f core.Filter) (core.TotalReport, error) {
	conds, args := expenseConds(f)
	query := `SELECT COALESCE(SUM(e.amount_cents), 0), COUNT(*) FROM expenses e`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	var t core.TotalReport
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.TotalSpent.Cents, &t.Count); err != nil {
		return core.TotalReport{}, fmt.Errorf("total report: %w", err)
	}
	return t, nil
}

// CategoryReport aggregates per category. The filter conditions live in the
// join clause so categories without matching expenses still contribute a
// zero row, in creation order.
func (r *Repository) CategoryReport(ctx context.Context, f core.Filter) ([]core.CategoryReportRow, error) {
	conds, args := expenseConds(f)
	join := `LEFT JOIN expenses e ON e.category_id = c.id`
	if len(conds) > 0 {
		join += ` AND ` + strings.Join(conds, " AND ")
	}
	query := `SELECT c.name, COALESCE(c.description, ''), COALESCE(SUM(e.amount_cents), 0), COUNT(e.id)
		FROM categories c ` + join + `
		GROUP BY c.id
		ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category report: %w", err)
	}
	defer rows.Close()

	var report []core.CategoryReportRow
	for rows.Next() {
		var row core.CategoryReportRow
		if err := rows.Scan(&row.CategoryName, &row.Description, &row.TotalSpent.Cents, &row.Count); err != nil {
			return nil, fmt.Errorf("scan category report row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

func (r *Repository) NameReport(ctx context.Context, f core.Filter) ([]core.NameReportRow, error) {
	conds, args := expenseConds(f)
	query := `SELECT e.name, SUM(e.amount_cents), COUNT(*) FROM expenses e`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	// name ascending breaks total ties deterministically
	query += ` GROUP BY e.name ORDER BY SUM(e.amount_cents) DESC, e.name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("name report: %w", err)
	}
	defer rows.Close()

	var report []core.NameReportRow
	for rows.Next() {
		var row core.NameReportRow
		if err := rows.Scan(&row.ExpenseName, &row.TotalSpent.Cents, &row.Count); err != nil {
			return nil, fmt.Errorf("scan name report row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// HighestExpense returns the single max-amount match, or nil when nothing
// matches. Ties go to the earliest occurrence date, then the smallest id.
func (r *Repository) HighestExpense(ctx context.Context, f core.Filter) (*core.Expense, error) {
	conds, args := expenseConds(f)
	query := `SELECT ` + expenseColumns + ` FROM expenses e LEFT JOIN categories c ON c.id = e.category_id`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY e.amount_cents DESC, e.spent_at ASC, e.id ASC LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, args...)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("highest expense: %w", err)
	}
	return &e, nil
}
