package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/models"
)

const budgetColumns = `id, user_id, name, monthly_budget, current_spent, month`

// UpsertBudgetCategory creates a category for the month or updates its budget.
// Spending recorded so far is kept.
func (s *SQLiteStore) UpsertBudgetCategory(ctx context.Context, category *models.BudgetCategory) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budget_categories (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, name, month) DO UPDATE SET monthly_budget = excluded.monthly_budget`,
			newID(), category.UserID, category.Name, category.MonthlyBudget, decimal.Zero, category.Month.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert budget category: %w", err)
		}

		stored, err := scanBudget(tx.QueryRowContext(ctx,
			`SELECT `+budgetColumns+` FROM budget_categories WHERE user_id = ? AND name = ? AND month = ?`,
			category.UserID, category.Name, category.Month.Unix(),
		))
		if err != nil {
			return fmt.Errorf("failed to read budget category: %w", err)
		}
		*category = *stored
		return nil
	})
}

// GetBudgetCategory retrieves a budget category by ID.
func (s *SQLiteStore) GetBudgetCategory(ctx context.Context, categoryID string) (*models.BudgetCategory, error) {
	category, err := scanBudget(s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_categories WHERE id = ?`, categoryID,
	))
	if err != nil {
		return nil, notFound(err, "budget category", categoryID)
	}
	return category, nil
}

// ListBudgetCategories returns a user's categories for the month, by name.
func (s *SQLiteStore) ListBudgetCategories(ctx context.Context, userID string, month time.Time) ([]*models.BudgetCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budget_categories WHERE user_id = ? AND month = ? ORDER BY name`,
		userID, month.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.BudgetCategory
	for rows.Next() {
		category, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget categories: %w", err)
	}
	return categories, nil
}

// AddBudgetSpend adds amount to a category's spending.
func (s *SQLiteStore) AddBudgetSpend(ctx context.Context, categoryID string, amount decimal.Decimal) (*models.BudgetCategory, error) {
	var category *models.BudgetCategory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		category, err = scanBudget(tx.QueryRowContext(ctx,
			`SELECT `+budgetColumns+` FROM budget_categories WHERE id = ?`, categoryID,
		))
		if err != nil {
			return notFound(err, "budget category", categoryID)
		}

		category.CurrentSpent = category.CurrentSpent.Add(amount)
		_, err = tx.ExecContext(ctx,
			"UPDATE budget_categories SET current_spent = ? WHERE id = ?",
			category.CurrentSpent, categoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to record spend: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func scanBudget(row scanner) (*models.BudgetCategory, error) {
	category := &models.BudgetCategory{}
	var month int64
	if err := row.Scan(
		&category.ID, &category.UserID, &category.Name,
		&category.MonthlyBudget, &category.CurrentSpent, &month,
	); err != nil {
		return nil, err
	}
	category.Month = fromUnix(month)
	return category, nil
}
