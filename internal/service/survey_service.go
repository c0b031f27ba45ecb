package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-backend/internal/model"
	"fleet-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitSurveyDTO struct {
	Rating   int    `json:"rating" binding:"required"`
	Comments string `json:"comments"`
}

type SurveyResponse struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	Date      time.Time `json:"date"`
}

type SurveyPromptResponse struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	Destination string    `json:"destination,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Interface ---

// SurveyService collects service ratings for completed requests. Prompts are
// opened by the assignment engine on completion; a prompt can be answered or
// skipped, and a completed request may collect several surveys over time.
type SurveyService interface {
	Submit(ctx context.Context, requestID string, req SubmitSurveyDTO) (SurveyResponse, error)
	Skip(ctx context.Context, requestID string) error
	ListSurveys(ctx context.Context, requestID string, page, limit int) ([]SurveyResponse, int64, error)
	ListOpenPrompts(ctx context.Context) ([]SurveyPromptResponse, error)
}

type surveyService struct {
	surveyRepo  repository.SurveyRepository
	requestRepo repository.RequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewSurveyService(
	surveyRepo repository.SurveyRepository,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SurveyService {
	return &surveyService{
		surveyRepo:  surveyRepo,
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *surveyService) Submit(ctx context.Context, requestID string, req SubmitSurveyDTO) (SurveyResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return SurveyResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return SurveyResponse{}, fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	}

	var survey model.Survey
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requestRepo.FindByID(txCtx, reqID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("request %s: %w", requestID, ErrNotFound)
			}
			return findErr
		}
		if request.Status != model.RequestCompleted {
			return fmt.Errorf("request is %s, only completed requests can be rated: %w", request.Status, ErrPreconditionFailed)
		}

		survey = model.Survey{
			RequestID: reqID,
			Rating:    req.Rating,
			Comments:  req.Comments,
			Date:      time.Now(),
		}
		if createErr := s.surveyRepo.Create(txCtx, &survey); createErr != nil {
			return fmt.Errorf("failed to create survey: %w", createErr)
		}

		// Close the open prompt if one is still pending. Repeat submissions
		// after the prompt is gone are permitted.
		if _, delErr := s.surveyRepo.DeletePromptByRequestID(txCtx, reqID); delErr != nil {
			return fmt.Errorf("failed to close survey prompt: %w", delErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"rating": req.Rating})
		audit := model.AuditLog{
			Action:     model.ActionSubmitSurvey,
			EntityID:   survey.ID.String(),
			EntityName: request.Requester + " -> " + request.Destination,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return SurveyResponse{}, err
	}

	return toSurveyResponse(survey), nil
}

// Skip discards the open prompt for a request without creating any record.
func (s *surveyService) Skip(ctx context.Context, requestID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	ok, err := s.surveyRepo.DeletePromptByRequestID(ctx, reqID)
	if err != nil {
		return fmt.Errorf("failed to discard survey prompt: %w", err)
	}
	if !ok {
		return fmt.Errorf("no open survey prompt for request %s: %w", requestID, ErrNotFound)
	}
	return nil
}

func (s *surveyService) ListSurveys(ctx context.Context, requestID string, page, limit int) ([]SurveyResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var filter *uuid.UUID
	if requestID != "" {
		reqID, err := uuid.Parse(requestID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid request id: %w", ErrValidation)
		}
		filter = &reqID
	}

	surveys, total, err := s.surveyRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch surveys: %w", err)
	}

	result := make([]SurveyResponse, 0, len(surveys))
	for _, sv := range surveys {
		result = append(result, toSurveyResponse(sv))
	}

	return result, total, nil
}

func (s *surveyService) ListOpenPrompts(ctx context.Context) ([]SurveyPromptResponse, error) {
	prompts, err := s.surveyRepo.ListPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch survey prompts: %w", err)
	}

	result := make([]SurveyPromptResponse, 0, len(prompts))
	for _, p := range prompts {
		resp := SurveyPromptResponse{
			ID:        p.ID.String(),
			RequestID: p.RequestID.String(),
			CreatedAt: p.CreatedAt,
		}
		if p.Request != nil {
			resp.Destination = p.Request.Destination
		}
		result = append(result, resp)
	}

	return result, nil
}

// --- Helpers ---

func toSurveyResponse(s model.Survey) SurveyResponse {
	return SurveyResponse{
		ID:        s.ID.String(),
		RequestID: s.RequestID.String(),
		Rating:    s.Rating,
		Comments:  s.Comments,
		Date:      s.Date,
	}
}
