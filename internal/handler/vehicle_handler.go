package handler

import (
	"net/http"

	"fleet-backend/internal/service"
	"fleet-backend/pkg/pagination"
	"fleet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	vehicleService service.VehicleService
}

func NewVehicleHandler(vehicleService service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func (h *VehicleHandler) RegisterRoutes(router *gin.RouterGroup) {
	vehicles := router.Group("/api/vehicles")
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.POST("", h.CreateVehicle)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/:id", h.DeleteVehicle)
		vehicles.PUT("/:id/status", h.SetStatus)
	}
}

type setVehicleStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

// CreateVehicle handles POST /api/vehicles
// @Summary      Register a vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateVehicleDTO  true  "Vehicle payload"
// @Success      201      {object}  response.Response{data=service.VehicleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/vehicles [post]
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req service.CreateVehicleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.vehicleService.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListVehicles returns vehicles, optionally filtered by status or search text
// @Summary      List vehicles
// @Tags         vehicles
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Search by plate/make/model"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/vehicles [get]
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	params := pagination.Parse(c)

	vehicles, total, err := h.vehicleService.ListVehicles(c.Request.Context(), c.Query("status"), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   vehicles,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetVehicle returns a single vehicle
// @Summary      Get a vehicle
// @Tags         vehicles
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response{data=service.VehicleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id} [get]
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	result, err := h.vehicleService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateVehicle updates a vehicle's descriptive fields
// @Summary      Update a vehicle
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Vehicle ID"
// @Param        payload  body      service.UpdateVehicleDTO  true  "Fields to update"
// @Success      200      {object}  response.Response{data=service.VehicleResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/vehicles/{id} [put]
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var req service.UpdateVehicleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.vehicleService.UpdateVehicle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteVehicle removes a vehicle that no active request holds
// @Summary      Delete a vehicle
// @Tags         vehicles
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles/{id} [delete]
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	if err := h.vehicleService.DeleteVehicle(c.Request.Context(), c.Param("id")); err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// SetStatus manually toggles a vehicle's status
// @Summary      Set vehicle status
// @Description  Manual toggle for maintenance or admin corrections; vehicles held by an active request are refused
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Vehicle ID"
// @Param        payload  body      setVehicleStatusDTO  true  "New status"
// @Success      200      {object}  response.Response{data=service.VehicleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/vehicles/{id}/status [put]
func (h *VehicleHandler) SetStatus(c *gin.Context) {
	var req setVehicleStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.vehicleService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
