package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Participant statuses.
const (
	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
	ParticipantRejected = "rejected"
)

// Trip represents a planned trip that users can join and share costs on.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// CreatorID is the user who created the trip. The creator is always
	// an accepted participant.
	CreatorID string

	StartPoint  string
	Destination string

	// StartDate is the departure day (UTC).
	StartDate time.Time

	// DurationDays is the trip length in days.
	DurationDays int

	// MaxParticipants caps the number of accepted participants, creator included.
	MaxParticipants int

	// EstimatedCost is the creator's estimate of the total trip cost.
	EstimatedCost decimal.Decimal

	// Requirements is free-form text (gear, licences, etc.).
	Requirements string

	// Participants lists everyone who asked to join, with their status.
	Participants []TripParticipant

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// TripParticipant links a user to a trip.
type TripParticipant struct {
	TripID string
	UserID string
	Status string
	// JoinedAt is the Unix timestamp of the join request.
	JoinedAt int64
}

// AcceptedParticipants returns the user IDs of accepted participants in join order.
func (t *Trip) AcceptedParticipants() []string {
	var ids []string
	for _, p := range t.Participants {
		if p.Status == ParticipantAccepted {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// IsAccepted reports whether userID is an accepted participant.
func (t *Trip) IsAccepted(userID string) bool {
	for _, p := range t.Participants {
		if p.UserID == userID && p.Status == ParticipantAccepted {
			return true
		}
	}
	return false
}
