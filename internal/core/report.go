package core

// TotalReport is the sum and count of matching expenses. Zero-valued when
// nothing matches, never an error.
type TotalReport struct {
	TotalSpent Money
	Count      int64
}

// CategoryReportRow aggregates one category's matching expenses. Categories
// without matches still get a row with zero totals. Rows are ordered by
// category creation, which is stable across repeated calls.
type CategoryReportRow struct {
	CategoryName string
	Description  string
	TotalSpent   Money
	Count        int64
}

// NameReportRow aggregates matching expenses sharing an exact name. Rows are
// ordered by total descending, name ascending on ties.
type NameReportRow struct {
	ExpenseName string
	TotalSpent  Money
	Count       int64
}

// Overview bundles all four report variants for a single filter.
type Overview struct {
	Total      TotalReport
	ByCategory []CategoryReportRow
	ByName     []NameReportRow
	Highest    *Expense // nil when no expense matches
}
