package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

const (
	goalColumns = `id, user_id, name, target_amount, current_amount, deadline,
		is_group, auto_save, auto_save_frequency, completed, created_at`
	ruleColumns = `id, user_id, goal_id, rule_type, amount, frequency, is_active, last_applied_at, created_at`
)

// CreateGoal persists a savings goal and its optional rule.
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal *models.SavingsGoal, rule *models.SavingsRule) error {
	if goal.ID == "" {
		goal.ID = newID()
	}
	if goal.CreatedAt == 0 {
		goal.CreatedAt = nowUnix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO savings_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			goal.ID, goal.UserID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.Deadline.Unix(),
			goal.IsGroup, goal.AutoSave, goal.AutoSaveFrequency, goal.Completed, goal.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert savings goal: %w", err)
		}
		return replaceRule(ctx, tx, goal, rule)
	})
}

// GetGoal retrieves a savings goal by ID.
func (s *SQLiteStore) GetGoal(ctx context.Context, goalID string) (*models.SavingsGoal, error) {
	goal, err := scanGoal(s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, goalID))
	if err != nil {
		return nil, notFound(err, "savings goal", goalID)
	}
	return goal, nil
}

// ListGoalsByUser returns a user's goals ordered by deadline.
func (s *SQLiteStore) ListGoalsByUser(ctx context.Context, userID string) ([]*models.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY deadline, created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []*models.SavingsGoal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate savings goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal saves a goal and replaces its rule in the same transaction.
func (s *SQLiteStore) UpdateGoal(ctx context.Context, goal *models.SavingsGoal, rule *models.SavingsRule) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updateGoal(ctx, tx, goal); err != nil {
			return err
		}
		return replaceRule(ctx, tx, goal, rule)
	})
}

// GetRuleForGoal retrieves the savings rule attached to a goal.
func (s *SQLiteStore) GetRuleForGoal(ctx context.Context, goalID string) (*models.SavingsRule, error) {
	rule, err := scanRule(s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM savings_rules WHERE goal_id = ?`, goalID))
	if err != nil {
		return nil, notFound(err, "savings rule for goal", goalID)
	}
	return rule, nil
}

// ListActiveRules returns every active savings rule.
func (s *SQLiteStore) ListActiveRules(ctx context.Context) ([]*models.SavingsRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM savings_rules WHERE is_active = 1 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.SavingsRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan savings rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate savings rules: %w", err)
	}
	return rules, nil
}

// ApplyContribution debits the owner's wallet (when asked), updates the goal
// and optionally replaces its rule, all in one transaction.
func (s *SQLiteStore) ApplyContribution(ctx context.Context, c storage.GoalContribution) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if c.FromWallet {
			desc := fmt.Sprintf("savings: %s", c.Goal.Name)
			if err := debitWallet(ctx, tx, c.Goal.UserID, c.Amount, models.TxSavings, desc); err != nil {
				return err
			}
		}
		if err := updateGoal(ctx, tx, c.Goal); err != nil {
			return err
		}
		if c.ReplaceRule {
			return replaceRule(ctx, tx, c.Goal, c.Rule)
		}
		return nil
	})
}

func updateGoal(ctx context.Context, tx *sql.Tx, goal *models.SavingsGoal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE savings_goals
		SET name = ?, target_amount = ?, current_amount = ?, deadline = ?,
			auto_save = ?, auto_save_frequency = ?, completed = ?
		WHERE id = ?`,
		goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.Deadline.Unix(),
		goal.AutoSave, goal.AutoSaveFrequency, goal.Completed, goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update savings goal: %w", err)
	}
	return checkAffected(res, "savings goal", goal.ID)
}

// replaceRule deletes the goal's rule and inserts rule in its place.
func replaceRule(ctx context.Context, tx *sql.Tx, goal *models.SavingsGoal, rule *models.SavingsRule) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM savings_rules WHERE goal_id = ?", goal.ID); err != nil {
		return fmt.Errorf("failed to delete savings rule: %w", err)
	}
	if rule == nil {
		return nil
	}

	if rule.ID == "" {
		rule.ID = newID()
	}
	if rule.CreatedAt == 0 {
		rule.CreatedAt = nowUnix()
	}
	rule.GoalID = goal.ID
	rule.UserID = goal.UserID

	_, err := tx.ExecContext(ctx,
		`INSERT INTO savings_rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.UserID, rule.GoalID, rule.RuleType, rule.Amount, rule.Frequency,
		rule.IsActive, rule.LastAppliedAt, rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert savings rule: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(row scanner) (*models.SavingsGoal, error) {
	goal := &models.SavingsGoal{}
	var deadline int64
	if err := row.Scan(
		&goal.ID, &goal.UserID, &goal.Name, &goal.TargetAmount, &goal.CurrentAmount, &deadline,
		&goal.IsGroup, &goal.AutoSave, &goal.AutoSaveFrequency, &goal.Completed, &goal.CreatedAt,
	); err != nil {
		return nil, err
	}
	goal.Deadline = fromUnix(deadline)
	return goal, nil
}

func scanRule(row scanner) (*models.SavingsRule, error) {
	rule := &models.SavingsRule{}
	if err := row.Scan(
		&rule.ID, &rule.UserID, &rule.GoalID, &rule.RuleType, &rule.Amount, &rule.Frequency,
		&rule.IsActive, &rule.LastAppliedAt, &rule.CreatedAt,
	); err != nil {
		return nil, err
	}
	return rule, nil
}
