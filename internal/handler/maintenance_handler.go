package handler

import (
	"net/http"

	"fleet-backend/internal/service"
	"fleet-backend/pkg/pagination"
	"fleet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
}

func NewMaintenanceHandler(maintenanceService service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	maintenance := router.Group("/api/maintenance")
	{
		maintenance.GET("", h.ListRecords)
		maintenance.POST("", h.ScheduleMaintenance)
		maintenance.GET("/:id", h.GetRecord)
		maintenance.PUT("/:id/start", h.StartMaintenance)
		maintenance.PUT("/:id/complete", h.CompleteMaintenance)
		maintenance.PUT("/:id/cancel", h.CancelMaintenance)
		maintenance.GET("/vehicles/:vehicleId/total-cost", h.TotalCost)
	}
}

// ScheduleMaintenance registers an upcoming maintenance job for a vehicle
// @Summary      Schedule maintenance
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ScheduleMaintenanceDTO  true  "Maintenance payload"
// @Success      201      {object}  response.Response{data=service.MaintenanceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/maintenance [post]
func (h *MaintenanceHandler) ScheduleMaintenance(c *gin.Context) {
	var req service.ScheduleMaintenanceDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.maintenanceService.Schedule(c.Request.Context(), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRecords returns maintenance records, optionally filtered
// @Summary      List maintenance records
// @Tags         maintenance
// @Produce      json
// @Param        vehicle_id  query     string  false  "Filter by vehicle"
// @Param        status      query     string  false  "Filter by status"
// @Success      200         {object}  map[string]interface{}
// @Router       /api/maintenance [get]
func (h *MaintenanceHandler) ListRecords(c *gin.Context) {
	params := pagination.Parse(c)

	records, total, err := h.maintenanceService.List(c.Request.Context(), c.Query("vehicle_id"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   records,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetRecord returns a single maintenance record
// @Summary      Get a maintenance record
// @Tags         maintenance
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=service.MaintenanceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/maintenance/{id} [get]
func (h *MaintenanceHandler) GetRecord(c *gin.Context) {
	result, err := h.maintenanceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// StartMaintenance moves a scheduled job into progress and parks the vehicle
// @Summary      Start maintenance
// @Tags         maintenance
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=service.MaintenanceResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/maintenance/{id}/start [put]
func (h *MaintenanceHandler) StartMaintenance(c *gin.Context) {
	result, err := h.maintenanceService.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CompleteMaintenance closes a job and returns the vehicle to service
// @Summary      Complete maintenance
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true   "Record ID"
// @Param        payload  body      service.CompleteMaintenanceDTO  false  "Final cost and notes"
// @Success      200      {object}  response.Response{data=service.MaintenanceResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/maintenance/{id}/complete [put]
func (h *MaintenanceHandler) CompleteMaintenance(c *gin.Context) {
	var req service.CompleteMaintenanceDTO
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.maintenanceService.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CancelMaintenance cancels a job that has not completed
// @Summary      Cancel maintenance
// @Tags         maintenance
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=service.MaintenanceResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/maintenance/{id}/cancel [put]
func (h *MaintenanceHandler) CancelMaintenance(c *gin.Context) {
	result, err := h.maintenanceService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// TotalCost sums completed maintenance spend for a vehicle
// @Summary      Total maintenance cost for a vehicle
// @Tags         maintenance
// @Produce      json
// @Param        vehicleId  path      string  true  "Vehicle ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/maintenance/vehicles/{vehicleId}/total-cost [get]
func (h *MaintenanceHandler) TotalCost(c *gin.Context) {
	total, err := h.maintenanceService.TotalCostByVehicle(c.Request.Context(), c.Param("vehicleId"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"total_cost": total}))
}
