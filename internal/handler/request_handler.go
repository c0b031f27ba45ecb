package handler

import (
	"net/http"

	"fleet-backend/internal/service"
	"fleet-backend/pkg/pagination"
	"fleet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService    service.RequestService
	assignmentService service.AssignmentService
}

// NewRequestHandler sets up the routing dependencies for transport request endpoints
func NewRequestHandler(requestService service.RequestService, assignmentService service.AssignmentService) *RequestHandler {
	return &RequestHandler{requestService: requestService, assignmentService: assignmentService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.GET("", h.ListRequests)
		requests.POST("", h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id", h.UpdateRequest)
		requests.DELETE("/:id", h.DeleteRequest)

		// Lifecycle transitions go through the assignment engine
		requests.PUT("/:id/assign", h.AssignRequest)
		requests.PUT("/:id/start", h.StartRequest)
		requests.PUT("/:id/complete", h.CompleteRequest)
		requests.PUT("/:id/cancel", h.CancelRequest)
	}
}

type assignRequestDTO struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
	DriverID  string `json:"driver_id" binding:"required"`
	StartNow  bool   `json:"start_now"`
}

type cancelRequestDTO struct {
	Reason string `json:"reason"`
}

// CreateRequest handles POST /api/requests
// @Summary      Create a transport request
// @Description  Creates a new transport request in Pending status with no resources attached
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRequestDTO  true  "Request payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.CreateRequest(c.Request.Context(), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns transport requests, optionally filtered by status
// @Summary      List transport requests
// @Tags         requests
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.RequestFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.requestService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetRequest returns a single transport request with its vehicle/driver
// @Summary      Get a transport request
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	result, err := h.requestService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateRequest updates the descriptive payload of a request
// @Summary      Update a transport request
// @Description  Updates descriptive fields only; status and resources change through the lifecycle endpoints
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Request ID"
// @Param        payload  body      service.UpdateRequestDTO  true  "Fields to update"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests/{id} [put]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	var req service.UpdateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.requestService.UpdateRequest(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteRequest removes a request, canceling it first when still active
// @Summary      Delete a transport request
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.requestService.DeleteRequest(c.Request.Context(), c.Param("id")); err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// AssignRequest attaches an available vehicle and driver to a pending request
// @Summary      Assign vehicle and driver
// @Description  Moves a pending request to Approved (or InProgress with start_now), marking the vehicle InUse and the driver OnTrip
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Request ID"
// @Param        payload  body      assignRequestDTO  true  "Assignment payload"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/assign [put]
func (h *RequestHandler) AssignRequest(c *gin.Context) {
	var req assignRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.assignmentService.Assign(c.Request.Context(), c.Param("id"), req.VehicleID, req.DriverID, req.StartNow)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// StartRequest moves an approved request to InProgress
// @Summary      Start an approved trip
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/start [put]
func (h *RequestHandler) StartRequest(c *gin.Context) {
	result, err := h.assignmentService.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CompleteRequest completes a trip, releasing its vehicle and driver
// @Summary      Complete a trip
// @Description  Moves an approved or in-progress request to Completed, releases both resources and opens a survey prompt
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/complete [put]
func (h *RequestHandler) CompleteRequest(c *gin.Context) {
	result, err := h.assignmentService.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CancelRequest cancels a non-terminal request
// @Summary      Cancel a request
// @Description  Moves any non-terminal request to Canceled and releases attached resources
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string            true   "Request ID"
// @Param        payload  body      cancelRequestDTO  false  "Optional reason"
// @Success      200      {object}  response.Response{data=service.RequestResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/cancel [put]
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	var req cancelRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow an empty body, the reason is optional
		req.Reason = ""
	}

	result, err := h.assignmentService.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
