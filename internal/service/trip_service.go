package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
	"github.com/mmynk/tripfund/pkg/api"
)

// TripService implements the Connect TripService.
type TripService struct {
	store storage.TripStore
}

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.TripStore) *TripService {
	return &TripService{store: store}
}

// CreateTrip creates a trip with the caller as its creator and first accepted participant.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	trip := &models.Trip{
		CreatorID:       userID,
		StartPoint:      strings.TrimSpace(req.Msg.StartPoint),
		Destination:     strings.TrimSpace(req.Msg.Destination),
		StartDate:       req.Msg.StartDate.UTC(),
		DurationDays:    req.Msg.DurationDays,
		MaxParticipants: req.Msg.MaxParticipants,
		EstimatedCost:   req.Msg.EstimatedCost.Round(2),
		Requirements:    req.Msg.Requirements,
	}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		slog.Error("CreateTrip failed", "error", err)
		return nil, toConnectError(err)
	}

	// Re-read so the response carries the creator's participant row
	created, err := s.store.GetTrip(ctx, trip.ID)
	if err != nil {
		slog.Error("CreateTrip: failed to reload trip", "trip_id", trip.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Trip created", "trip_id", created.ID, "creator", userID, "destination", created.Destination)
	return connect.NewResponse(&api.CreateTripResponse{Trip: toAPITrip(created)}), nil
}

// GetTrip returns a trip with its participants.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	trip, err := s.store.GetTrip(ctx, req.Msg.TripID)
	if err != nil {
		slog.Error("GetTrip failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetTripResponse{Trip: toAPITrip(trip)}), nil
}

// JoinTrip records a pending join request from the caller.
func (s *TripService) JoinTrip(ctx context.Context, req *connect.Request[api.JoinTripRequest]) (*connect.Response[api.JoinTripResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	trip, err := s.store.GetTrip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if len(trip.AcceptedParticipants()) >= trip.MaxParticipants {
		return nil, toConnectError(fmt.Errorf("%w: %d participants", errTripFull, trip.MaxParticipants))
	}

	// Duplicate join requests surface as ErrConflict from the primary key
	if err := s.store.AddTripParticipant(ctx, trip.ID, userID); err != nil {
		slog.Warn("JoinTrip failed", "trip_id", trip.ID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	updated, err := s.store.GetTrip(ctx, trip.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Join request recorded", "trip_id", trip.ID, "user_id", userID)
	return connect.NewResponse(&api.JoinTripResponse{Trip: toAPITrip(updated)}), nil
}

// ReviewParticipant lets the trip creator accept or reject a pending participant.
func (s *TripService) ReviewParticipant(ctx context.Context, req *connect.Request[api.ReviewParticipantRequest]) (*connect.Response[api.ReviewParticipantResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	trip, err := s.store.GetTrip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if trip.CreatorID != userID {
		return nil, toConnectError(fmt.Errorf("%w: only the trip creator can review participants", errForbidden))
	}
	if req.Msg.UserID == trip.CreatorID {
		return nil, toConnectError(fmt.Errorf("%w: the creator cannot be reviewed", errInvalidRequest))
	}

	status := models.ParticipantRejected
	if req.Msg.Accept {
		if len(trip.AcceptedParticipants()) >= trip.MaxParticipants {
			return nil, toConnectError(fmt.Errorf("%w: %d participants", errTripFull, trip.MaxParticipants))
		}
		status = models.ParticipantAccepted
	}

	if err := s.store.SetParticipantStatus(ctx, trip.ID, req.Msg.UserID, status); err != nil {
		slog.Error("ReviewParticipant failed", "trip_id", trip.ID, "user_id", req.Msg.UserID, "error", err)
		return nil, toConnectError(err)
	}

	updated, err := s.store.GetTrip(ctx, trip.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Participant reviewed", "trip_id", trip.ID, "user_id", req.Msg.UserID, "status", status)
	return connect.NewResponse(&api.ReviewParticipantResponse{Trip: toAPITrip(updated)}), nil
}

// requireParticipant loads tripID and checks that userID is an accepted participant.
func requireParticipant(ctx context.Context, trips storage.TripStore, tripID, userID string) (*models.Trip, error) {
	trip, err := trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsAccepted(userID) {
		return nil, fmt.Errorf("%w: %s is not a participant of trip %s", errForbidden, userID, tripID)
	}
	return trip, nil
}

