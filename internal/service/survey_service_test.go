package service

import (
	"errors"
	"testing"

	"fleet-backend/internal/model"
)

func completeTrip(t *testing.T, env *testEnv) *model.TransportRequest {
	t.Helper()
	vehicle := seedVehicle(t, env.db, "SRV-001", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Survey Driver", "LIC-SRV", model.DriverAvailable)
	request := seedRequest(t, env.db, "Survey Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), true); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := env.assignments.Complete(testCtx, request.ID.String()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	return request
}

func TestSubmitSurvey(t *testing.T) {
	env := newTestEnv(t)
	request := completeTrip(t, env)

	resp, err := env.surveys.Submit(testCtx, request.ID.String(), SubmitSurveyDTO{Rating: 5, Comments: "great service"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Rating != 5 {
		t.Errorf("rating = %d, want 5", resp.Rating)
	}
	if resp.RequestID != request.ID.String() {
		t.Errorf("request id = %s, want %s", resp.RequestID, request.ID)
	}

	// Submitting closes the prompt.
	prompts, err := env.surveys.ListOpenPrompts(testCtx)
	if err != nil {
		t.Fatalf("ListOpenPrompts: %v", err)
	}
	if len(prompts) != 0 {
		t.Errorf("open prompts = %d, want 0", len(prompts))
	}

	if got := countAuditLogs(t, env.db, model.ActionSubmitSurvey); got != 1 {
		t.Errorf("survey audit entries = %d, want 1", got)
	}
}

func TestSubmitSurveyTwice(t *testing.T) {
	env := newTestEnv(t)
	request := completeTrip(t, env)

	if _, err := env.surveys.Submit(testCtx, request.ID.String(), SubmitSurveyDTO{Rating: 4}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	// A second submission after the prompt closed is still accepted.
	if _, err := env.surveys.Submit(testCtx, request.ID.String(), SubmitSurveyDTO{Rating: 2, Comments: "changed my mind"}); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	surveys, total, err := env.surveys.ListSurveys(testCtx, request.ID.String(), 1, 10)
	if err != nil {
		t.Fatalf("ListSurveys: %v", err)
	}
	if total != 2 || len(surveys) != 2 {
		t.Errorf("surveys = %d (total %d), want 2", len(surveys), total)
	}
}

func TestSubmitSurveyRatingBounds(t *testing.T) {
	env := newTestEnv(t)
	request := completeTrip(t, env)

	for _, rating := range []int{0, -1, 6, 100} {
		if _, err := env.surveys.Submit(testCtx, request.ID.String(), SubmitSurveyDTO{Rating: rating}); !errors.Is(err, ErrValidation) {
			t.Errorf("Submit(rating=%d) err = %v, want ErrValidation", rating, err)
		}
	}
}

func TestSubmitSurveyRequiresCompletedRequest(t *testing.T) {
	env := newTestEnv(t)
	request := seedRequest(t, env.db, "Requester", model.RequestInProgress)

	if _, err := env.surveys.Submit(testCtx, request.ID.String(), SubmitSurveyDTO{Rating: 3}); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestSkipSurvey(t *testing.T) {
	env := newTestEnv(t)
	request := completeTrip(t, env)

	if err := env.surveys.Skip(testCtx, request.ID.String()); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	prompts, err := env.surveys.ListOpenPrompts(testCtx)
	if err != nil {
		t.Fatalf("ListOpenPrompts: %v", err)
	}
	if len(prompts) != 0 {
		t.Errorf("open prompts = %d, want 0", len(prompts))
	}

	// Skipping leaves no survey behind.
	_, total, err := env.surveys.ListSurveys(testCtx, request.ID.String(), 1, 10)
	if err != nil {
		t.Fatalf("ListSurveys: %v", err)
	}
	if total != 0 {
		t.Errorf("surveys = %d, want 0", total)
	}

	// The prompt is gone, a second skip reports not found.
	if err := env.surveys.Skip(testCtx, request.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Skip err = %v, want ErrNotFound", err)
	}
}
