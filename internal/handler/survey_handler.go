package handler

import (
	"net/http"

	"fleet-backend/internal/service"
	"fleet-backend/pkg/pagination"
	"fleet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SurveyHandler struct {
	surveyService service.SurveyService
}

func NewSurveyHandler(surveyService service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

func (h *SurveyHandler) RegisterRoutes(router *gin.RouterGroup) {
	surveys := router.Group("/api/surveys")
	{
		surveys.GET("", h.ListSurveys)
		surveys.GET("/prompts", h.ListOpenPrompts)
		surveys.POST("/:requestId", h.SubmitSurvey)
		surveys.DELETE("/:requestId/prompt", h.SkipSurvey)
	}
}

// ListSurveys returns submitted satisfaction surveys
// @Summary      List surveys
// @Tags         surveys
// @Produce      json
// @Param        request_id  query     string  false  "Filter by request"
// @Success      200         {object}  map[string]interface{}
// @Router       /api/surveys [get]
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	params := pagination.Parse(c)

	surveys, total, err := h.surveyService.ListSurveys(c.Request.Context(), c.Query("request_id"), params.Page, params.Limit)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   surveys,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListOpenPrompts returns completed requests still waiting on a rating
// @Summary      List open survey prompts
// @Tags         surveys
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.SurveyPromptResponse}
// @Router       /api/surveys/prompts [get]
func (h *SurveyHandler) ListOpenPrompts(c *gin.Context) {
	prompts, err := h.surveyService.ListOpenPrompts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, prompts))
}

// SubmitSurvey records a satisfaction rating for a completed request
// @Summary      Submit a survey
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Param        requestId  path      string                   true  "Request ID"
// @Param        payload    body      service.SubmitSurveyDTO  true  "Rating payload"
// @Success      201        {object}  response.Response{data=service.SurveyResponse}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Failure      409        {object}  response.Response
// @Router       /api/surveys/{requestId} [post]
func (h *SurveyHandler) SubmitSurvey(c *gin.Context) {
	var req service.SubmitSurveyDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.surveyService.Submit(c.Request.Context(), c.Param("requestId"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// SkipSurvey dismisses the survey prompt for a request without rating it
// @Summary      Skip a survey prompt
// @Tags         surveys
// @Produce      json
// @Param        requestId  path      string  true  "Request ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/surveys/{requestId}/prompt [delete]
func (h *SurveyHandler) SkipSurvey(c *gin.Context) {
	if err := h.surveyService.Skip(c.Request.Context(), c.Param("requestId")); err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"skipped": true}))
}
