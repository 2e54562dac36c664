package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/pkg/api"
)

func participantStatus(trip *api.Trip, userID string) string {
	for _, p := range trip.Participants {
		if p.UserID == userID {
			return p.Status
		}
	}
	return ""
}

func TestCreateTrip(t *testing.T) {
	env := setupTestServer(t)

	trip := env.createTrip(t, "alice")

	if trip.ID == "" {
		t.Error("expected trip ID to be set")
	}
	if trip.CreatorID != "alice" {
		t.Errorf("expected creator alice, got %s", trip.CreatorID)
	}
	if len(trip.Participants) != 1 || participantStatus(trip, "alice") != models.ParticipantAccepted {
		t.Errorf("expected creator as the only accepted participant, got %+v", trip.Participants)
	}
	assertAmount(t, "estimated cost", trip.EstimatedCost, d("1200"))
}

func TestCreateTrip_Validation(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name string
		req  *api.CreateTripRequest
	}{
		{"missing destination", &api.CreateTripRequest{StartPoint: "A", StartDate: fixedNow, DurationDays: 1, MaxParticipants: 2}},
		{"zero duration", &api.CreateTripRequest{StartPoint: "A", Destination: "B", StartDate: fixedNow, MaxParticipants: 2}},
		{"zero participants", &api.CreateTripRequest{StartPoint: "A", Destination: "B", StartDate: fixedNow, DurationDays: 1}},
		{"negative cost", &api.CreateTripRequest{StartPoint: "A", Destination: "B", StartDate: fixedNow, DurationDays: 1, MaxParticipants: 2, EstimatedCost: d("-5")}},
		{"missing start date", &api.CreateTripRequest{StartPoint: "A", Destination: "B", DurationDays: 1, MaxParticipants: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.trips.CreateTrip(context.Background(), as("alice", tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestGetTrip_NotFound(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.trips.GetTrip(context.Background(), as("alice", &api.GetTripRequest{TripID: "non-existent-id"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestJoinAndReview(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	trip := env.createTrip(t, "alice")

	joined, err := env.trips.JoinTrip(ctx, as("bob", &api.JoinTripRequest{TripID: trip.ID}))
	if err != nil {
		t.Fatalf("JoinTrip failed: %v", err)
	}
	if got := participantStatus(joined.Msg.Trip, "bob"); got != models.ParticipantPending {
		t.Errorf("expected bob pending, got %q", got)
	}

	_, err = env.trips.JoinTrip(ctx, as("bob", &api.JoinTripRequest{TripID: trip.ID}))
	assertCode(t, err, connect.CodeAlreadyExists)

	// Only the creator reviews
	_, err = env.trips.ReviewParticipant(ctx, as("bob", &api.ReviewParticipantRequest{TripID: trip.ID, UserID: "bob", Accept: true}))
	assertCode(t, err, connect.CodePermissionDenied)

	reviewed, err := env.trips.ReviewParticipant(ctx, as("alice", &api.ReviewParticipantRequest{TripID: trip.ID, UserID: "bob", Accept: true}))
	if err != nil {
		t.Fatalf("ReviewParticipant failed: %v", err)
	}
	if got := participantStatus(reviewed.Msg.Trip, "bob"); got != models.ParticipantAccepted {
		t.Errorf("expected bob accepted, got %q", got)
	}

	if _, err := env.trips.JoinTrip(ctx, as("carol", &api.JoinTripRequest{TripID: trip.ID})); err != nil {
		t.Fatalf("JoinTrip failed: %v", err)
	}
	rejected, err := env.trips.ReviewParticipant(ctx, as("alice", &api.ReviewParticipantRequest{TripID: trip.ID, UserID: "carol"}))
	if err != nil {
		t.Fatalf("ReviewParticipant failed: %v", err)
	}
	if got := participantStatus(rejected.Msg.Trip, "carol"); got != models.ParticipantRejected {
		t.Errorf("expected carol rejected, got %q", got)
	}

	_, err = env.trips.ReviewParticipant(ctx, as("alice", &api.ReviewParticipantRequest{TripID: trip.ID, UserID: "dave", Accept: true}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestJoinTrip_Full(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	resp, err := env.trips.CreateTrip(ctx, as("alice", &api.CreateTripRequest{
		StartPoint:      "Oslo",
		Destination:     "Bergen",
		StartDate:       fixedNow,
		DurationDays:    2,
		MaxParticipants: 2,
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	tripID := resp.Msg.Trip.ID

	for _, u := range []string{"bob", "carol"} {
		if _, err := env.trips.JoinTrip(ctx, as(u, &api.JoinTripRequest{TripID: tripID})); err != nil {
			t.Fatalf("JoinTrip(%s) failed: %v", u, err)
		}
	}
	if _, err := env.trips.ReviewParticipant(ctx, as("alice", &api.ReviewParticipantRequest{TripID: tripID, UserID: "bob", Accept: true})); err != nil {
		t.Fatalf("ReviewParticipant failed: %v", err)
	}

	_, err = env.trips.ReviewParticipant(ctx, as("alice", &api.ReviewParticipantRequest{TripID: tripID, UserID: "carol", Accept: true}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = env.trips.JoinTrip(ctx, as("dave", &api.JoinTripRequest{TripID: tripID}))
	assertCode(t, err, connect.CodeFailedPrecondition)
}
