package repository

import (
	"context"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SurveyRepository interface {
	Create(ctx context.Context, survey *model.Survey) error
	List(ctx context.Context, requestID *uuid.UUID, page, limit int) ([]model.Survey, int64, error)
	CreatePrompt(ctx context.Context, prompt *model.SurveyPrompt) error
	FindPromptByRequestID(ctx context.Context, requestID uuid.UUID) (*model.SurveyPrompt, error)
	DeletePromptByRequestID(ctx context.Context, requestID uuid.UUID) (bool, error)
	ListPrompts(ctx context.Context) ([]model.SurveyPrompt, error)
}

type surveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	return GetDB(ctx, r.db).Create(survey).Error
}

func (r *surveyRepository) List(ctx context.Context, requestID *uuid.UUID, page, limit int) ([]model.Survey, int64, error) {
	var surveys []model.Survey
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Survey{})
	if requestID != nil {
		query = query.Where("request_id = ?", *requestID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&surveys).Error; err != nil {
		return nil, 0, err
	}

	return surveys, total, nil
}

func (r *surveyRepository) CreatePrompt(ctx context.Context, prompt *model.SurveyPrompt) error {
	return GetDB(ctx, r.db).Create(prompt).Error
}

func (r *surveyRepository) FindPromptByRequestID(ctx context.Context, requestID uuid.UUID) (*model.SurveyPrompt, error) {
	var prompt model.SurveyPrompt
	if err := GetDB(ctx, r.db).First(&prompt, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (r *surveyRepository) DeletePromptByRequestID(ctx context.Context, requestID uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.SurveyPrompt{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *surveyRepository) ListPrompts(ctx context.Context) ([]model.SurveyPrompt, error) {
	var prompts []model.SurveyPrompt
	if err := GetDB(ctx, r.db).Preload("Request").Order("created_at DESC").Find(&prompts).Error; err != nil {
		return nil, err
	}
	return prompts, nil
}
