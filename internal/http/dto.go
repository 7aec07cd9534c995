package http

import (
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/services"
)

// JSON views of the domain types. Amounts carry both the raw cents and the
// display value so clients do not re-derive one from the other.

type userDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type categoryDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      int64     `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type expenseDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Amount       float64   `json:"amount"`
	AmountCents  int64     `json:"amount_cents"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	UserID       int64     `json:"user_id,omitempty"`
	SpentAt      string    `json:"spent_at"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type totalReportDTO struct {
	TotalSpent float64 `json:"total_spent"`
	TotalCents int64   `json:"total_cents"`
	Count      int64   `json:"count"`
}

type categoryReportRowDTO struct {
	CategoryName string  `json:"category_name"`
	Description  string  `json:"description,omitempty"`
	TotalSpent   float64 `json:"total_spent"`
	TotalCents   int64   `json:"total_cents"`
	Count        int64   `json:"count"`
}

type nameReportRowDTO struct {
	ExpenseName string  `json:"expense_name"`
	TotalSpent  float64 `json:"total_spent"`
	TotalCents  int64   `json:"total_cents"`
	Count       int64   `json:"count"`
}

type overviewDTO struct {
	Total      totalReportDTO         `json:"total"`
	ByCategory []categoryReportRowDTO `json:"by_category"`
	ByName     []nameReportRowDTO     `json:"by_name"`
	Highest    *expenseDTO            `json:"highest"`
}

type categoryCascadeDTO struct {
	Deleted         categoryDTO `json:"deleted"`
	RemovedExpenses int64       `json:"removed_expenses"`
}

type userCascadeDTO struct {
	DeletedUser       userDTO `json:"deleted_user"`
	RemovedCategories int64   `json:"removed_categories"`
	RemovedExpenses   int64   `json:"removed_expenses"`
}

func toUserDTO(u core.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCategoryDTOs(cats []core.Category) []categoryDTO {
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryDTO(c))
	}
	return out
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:           e.ID,
		Name:         e.Name,
		Amount:       e.Amount.Float64(),
		AmountCents:  e.Amount.Cents,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		UserID:       e.UserID,
		SpentAt:      e.SpentAt.UTC().Format("2006-01-02"),
		Description:  e.Description,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toExpenseDTOs(exps []core.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(exps))
	for _, e := range exps {
		out = append(out, toExpenseDTO(e))
	}
	return out
}

func toTotalReportDTO(t core.TotalReport) totalReportDTO {
	return totalReportDTO{
		TotalSpent: t.TotalSpent.Float64(),
		TotalCents: t.TotalSpent.Cents,
		Count:      t.Count,
	}
}

func toCategoryReportDTOs(rows []core.CategoryReportRow) []categoryReportRowDTO {
	out := make([]categoryReportRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryReportRowDTO{
			CategoryName: row.CategoryName,
			Description:  row.Description,
			TotalSpent:   row.TotalSpent.Float64(),
			TotalCents:   row.TotalSpent.Cents,
			Count:        row.Count,
		})
	}
	return out
}

func toNameReportDTOs(rows []core.NameReportRow) []nameReportRowDTO {
	out := make([]nameReportRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, nameReportRowDTO{
			ExpenseName: row.ExpenseName,
			TotalSpent:  row.TotalSpent.Float64(),
			TotalCents:  row.TotalSpent.Cents,
			Count:       row.Count,
		})
	}
	return out
}

func toOverviewDTO(ov core.Overview) overviewDTO {
	dto := overviewDTO{
		Total:      toTotalReportDTO(ov.Total),
		ByCategory: toCategoryReportDTOs(ov.ByCategory),
		ByName:     toNameReportDTOs(ov.ByName),
	}
	if ov.Highest != nil {
		highest := toExpenseDTO(*ov.Highest)
		dto.Highest = &highest
	}
	return dto
}

func toCategoryCascadeDTO(res services.CategoryCascadeResult) categoryCascadeDTO {
	return categoryCascadeDTO{
		Deleted:         toCategoryDTO(res.Deleted),
		RemovedExpenses: res.RemovedExpenses,
	}
}

func toUserCascadeDTO(res services.UserCascadeResult) userCascadeDTO {
	return userCascadeDTO{
		DeletedUser:       toUserDTO(res.DeletedUser),
		RemovedCategories: res.RemovedCategories,
		RemovedExpenses:   res.RemovedExpenses,
	}
}
