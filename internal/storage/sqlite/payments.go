package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

const paymentColumns = `id, trip_id, user_id, amount, status, payment_method, processor_id, created_at`

// CreatePayment records a trip payment started with the processor.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = newID()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentPending
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = nowUnix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.TripID, payment.UserID, payment.Amount, payment.Status,
		payment.PaymentMethod, payment.ProcessorID, payment.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment %s: %w", payment.ProcessorID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPaymentByProcessorID retrieves a payment by its processor reference.
func (s *SQLiteStore) GetPaymentByProcessorID(ctx context.Context, processorID string) (*models.Payment, error) {
	p := &models.Payment{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE processor_id = ?`, processorID,
	).Scan(&p.ID, &p.TripID, &p.UserID, &p.Amount, &p.Status, &p.PaymentMethod, &p.ProcessorID, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "payment", processorID)
	}
	return p, nil
}

// SetPaymentStatus updates the status of a pending payment.
func (s *SQLiteStore) SetPaymentStatus(ctx context.Context, processorID, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = ? WHERE processor_id = ? AND status = ?",
		status, processorID, models.PaymentPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return checkAffected(res, "pending payment", processorID)
}
