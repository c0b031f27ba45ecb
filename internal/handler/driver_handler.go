package handler

import (
	"net/http"

	"fleet-backend/internal/service"
	"fleet-backend/pkg/pagination"
	"fleet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DriverHandler struct {
	driverService service.DriverService
}

func NewDriverHandler(driverService service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

func (h *DriverHandler) RegisterRoutes(router *gin.RouterGroup) {
	drivers := router.Group("/api/drivers")
	{
		drivers.GET("", h.ListDrivers)
		drivers.POST("", h.CreateDriver)
		drivers.GET("/:id", h.GetDriver)
		drivers.PUT("/:id", h.UpdateDriver)
		drivers.DELETE("/:id", h.DeleteDriver)
		drivers.PUT("/:id/status", h.SetStatus)
	}
}

type setDriverStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

// CreateDriver handles POST /api/drivers
// @Summary      Register a driver
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDriverDTO  true  "Driver payload"
// @Success      201      {object}  response.Response{data=service.DriverResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/drivers [post]
func (h *DriverHandler) CreateDriver(c *gin.Context) {
	var req service.CreateDriverDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.driverService.CreateDriver(c.Request.Context(), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListDrivers returns drivers, optionally filtered by status or search text
// @Summary      List drivers
// @Tags         drivers
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Search by name/license"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/drivers [get]
func (h *DriverHandler) ListDrivers(c *gin.Context) {
	params := pagination.Parse(c)

	drivers, total, err := h.driverService.ListDrivers(c.Request.Context(), c.Query("status"), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   drivers,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetDriver returns a single driver
// @Summary      Get a driver
// @Tags         drivers
// @Produce      json
// @Param        id   path      string  true  "Driver ID"
// @Success      200  {object}  response.Response{data=service.DriverResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/drivers/{id} [get]
func (h *DriverHandler) GetDriver(c *gin.Context) {
	result, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateDriver updates a driver's descriptive fields
// @Summary      Update a driver
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Driver ID"
// @Param        payload  body      service.UpdateDriverDTO  true  "Fields to update"
// @Success      200      {object}  response.Response{data=service.DriverResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/drivers/{id} [put]
func (h *DriverHandler) UpdateDriver(c *gin.Context) {
	var req service.UpdateDriverDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.driverService.UpdateDriver(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteDriver removes a driver that no active request holds
// @Summary      Delete a driver
// @Tags         drivers
// @Produce      json
// @Param        id   path      string  true  "Driver ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/drivers/{id} [delete]
func (h *DriverHandler) DeleteDriver(c *gin.Context) {
	if err := h.driverService.DeleteDriver(c.Request.Context(), c.Param("id")); err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// SetStatus manually toggles a driver's status
// @Summary      Set driver status
// @Description  Manual toggle for leave management; drivers held by an active request are refused
// @Tags         drivers
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Driver ID"
// @Param        payload  body      setDriverStatusDTO  true  "New status"
// @Success      200      {object}  response.Response{data=service.DriverResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/drivers/{id}/status [put]
func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req setDriverStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.driverService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
