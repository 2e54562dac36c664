package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

// CreateTrip persists a new trip and records its creator as accepted.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = newID()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = nowUnix()
	}

	creator := models.TripParticipant{
		TripID:   trip.ID,
		UserID:   trip.CreatorID,
		Status:   models.ParticipantAccepted,
		JoinedAt: trip.CreatedAt,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trips (id, creator_id, start_point, destination, start_date,
				duration_days, max_participants, estimated_cost, requirements, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trip.ID, trip.CreatorID, trip.StartPoint, trip.Destination, trip.StartDate.Unix(),
			trip.DurationDays, trip.MaxParticipants, trip.EstimatedCost, trip.Requirements, trip.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO trip_participants (trip_id, user_id, status, joined_at) VALUES (?, ?, ?, ?)",
			creator.TripID, creator.UserID, creator.Status, creator.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	trip.Participants = []models.TripParticipant{creator}
	return nil
}

// GetTrip retrieves a trip by ID, including all participants.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	trip := &models.Trip{}
	var startDate int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, creator_id, start_point, destination, start_date, duration_days,
			max_participants, estimated_cost, requirements, created_at
		FROM trips WHERE id = ?`,
		tripID,
	).Scan(
		&trip.ID, &trip.CreatorID, &trip.StartPoint, &trip.Destination, &startDate, &trip.DurationDays,
		&trip.MaxParticipants, &trip.EstimatedCost, &trip.Requirements, &trip.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "trip", tripID)
	}
	trip.StartDate = fromUnix(startDate)

	rows, err := s.db.QueryContext(ctx,
		"SELECT trip_id, user_id, status, joined_at FROM trip_participants WHERE trip_id = ? ORDER BY joined_at, user_id",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.TripParticipant
		if err := rows.Scan(&p.TripID, &p.UserID, &p.Status, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		trip.Participants = append(trip.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return trip, nil
}

// AddTripParticipant records a pending join request.
// Returns storage.ErrConflict if the user is already on the trip.
func (s *SQLiteStore) AddTripParticipant(ctx context.Context, tripID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO trip_participants (trip_id, user_id, status, joined_at) VALUES (?, ?, ?, ?)",
		tripID, userID, models.ParticipantPending, nowUnix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s already on trip %s: %w", userID, tripID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// SetParticipantStatus updates the status of a trip participant.
func (s *SQLiteStore) SetParticipantStatus(ctx context.Context, tripID, userID, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trip_participants SET status = ? WHERE trip_id = ? AND user_id = ?",
		status, tripID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return checkAffected(res, "participant", userID)
}
