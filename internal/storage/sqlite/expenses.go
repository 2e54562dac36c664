package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

const (
	expenseColumns = `id, trip_id, description, amount, paid_by, split_type, created_at`
	requestColumns = `id, expense_id, trip_id, user_id, payee_id, amount, status, created_at, updated_at`
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateExpense persists an expense together with its payment requests.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, requests []*models.PaymentRequest) error {
	if expense.ID == "" {
		expense.ID = newID()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = nowUnix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.TripID, expense.Description, expense.Amount,
			expense.PaidBy, expense.SplitType, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for _, req := range requests {
			if req.ID == "" {
				req.ID = newID()
			}
			req.ExpenseID = expense.ID
			req.TripID = expense.TripID
			req.PayeeID = expense.PaidBy
			if req.Status == "" {
				req.Status = models.RequestPending
			}
			req.CreatedAt = expense.CreatedAt
			req.UpdatedAt = expense.CreatedAt

			_, err = tx.ExecContext(ctx,
				`INSERT INTO payment_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				req.ID, req.ExpenseID, req.TripID, req.UserID, req.PayeeID,
				req.Amount, req.Status, req.CreatedAt, req.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert payment request: %w", err)
			}
		}
		return nil
	})
}

// ListExpensesByTrip returns a trip's expenses, oldest first.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error) {
	expenses, err := listExpenses(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Expense, len(expenses))
	for i := range expenses {
		out[i] = &expenses[i]
	}
	return out, nil
}

// ListPaymentRequestsByTrip returns a trip's payment requests, oldest first.
func (s *SQLiteStore) ListPaymentRequestsByTrip(ctx context.Context, tripID string) ([]*models.PaymentRequest, error) {
	requests, err := listRequests(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.PaymentRequest, len(requests))
	for i := range requests {
		out[i] = &requests[i]
	}
	return out, nil
}

// GetPaymentRequest retrieves a payment request by ID.
func (s *SQLiteStore) GetPaymentRequest(ctx context.Context, requestID string) (*models.PaymentRequest, error) {
	return getRequest(ctx, s.db, requestID)
}

// UpdatePaymentRequestStatus moves a pending request to status.
func (s *SQLiteStore) UpdatePaymentRequestStatus(ctx context.Context, requestID, status string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		req, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		return setRequestStatus(ctx, tx, req, status)
	})
}

// PayPaymentRequest settles a request from the ower's wallet into the payee's.
func (s *SQLiteStore) PayPaymentRequest(ctx context.Context, requestID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		req, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("payment request %s is %s: %w", requestID, req.Status, storage.ErrConflict)
		}

		desc := fmt.Sprintf("payment request %s", req.ID)
		if err := moveFunds(ctx, tx, req.UserID, req.PayeeID, req.Amount, models.TxPayment, desc); err != nil {
			return err
		}
		return setRequestStatus(ctx, tx, req, models.RequestPaid)
	})
}

// TripLedger reads a trip's expenses and requests in one transaction.
func (s *SQLiteStore) TripLedger(ctx context.Context, tripID string) ([]models.Expense, []models.PaymentRequest, error) {
	var (
		expenses []models.Expense
		requests []models.PaymentRequest
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if expenses, err = listExpenses(ctx, tx, tripID); err != nil {
			return err
		}
		requests, err = listRequests(ctx, tx, tripID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return expenses, requests, nil
}

func setRequestStatus(ctx context.Context, tx *sql.Tx, req *models.PaymentRequest, status string) error {
	if req.Status != models.RequestPending {
		return fmt.Errorf("payment request %s is %s: %w", req.ID, req.Status, storage.ErrConflict)
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE payment_requests SET status = ?, updated_at = ? WHERE id = ?",
		status, nowUnix(), req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	return nil
}

func getRequest(ctx context.Context, q queryer, requestID string) (*models.PaymentRequest, error) {
	req := &models.PaymentRequest{}
	err := q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM payment_requests WHERE id = ?`, requestID,
	).Scan(
		&req.ID, &req.ExpenseID, &req.TripID, &req.UserID, &req.PayeeID,
		&req.Amount, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "payment request", requestID)
	}
	return req, nil
}

func listExpenses(ctx context.Context, q queryer, tripID string) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE trip_id = ? ORDER BY created_at, id`, tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.Description, &e.Amount, &e.PaidBy, &e.SplitType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

func listRequests(ctx context.Context, q queryer, tripID string) ([]models.PaymentRequest, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM payment_requests WHERE trip_id = ? ORDER BY created_at, id`, tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}
	defer rows.Close()

	var requests []models.PaymentRequest
	for rows.Next() {
		var r models.PaymentRequest
		if err := rows.Scan(
			&r.ID, &r.ExpenseID, &r.TripID, &r.UserID, &r.PayeeID,
			&r.Amount, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment requests: %w", err)
	}
	return requests, nil
}
