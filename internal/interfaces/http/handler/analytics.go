package handler

import (
	analyticsapp "github.com/gasdist/backend/internal/application/analytics"
	"github.com/gin-gonic/gin"
)

// ForecastHandler handles demand forecast endpoints
type ForecastHandler struct {
	BaseHandler
	forecastService *analyticsapp.ForecastService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(base BaseHandler, forecastService *analyticsapp.ForecastService) *ForecastHandler {
	return &ForecastHandler{BaseHandler: base, forecastService: forecastService}
}

// Create handles POST /api/forecasts
func (h *ForecastHandler) Create(c *gin.Context) {
	var req analyticsapp.CreateForecastRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.forecastService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, f)
}

// Generate handles POST /api/forecasts/generate
func (h *ForecastHandler) Generate(c *gin.Context) {
	var req analyticsapp.GenerateForecastRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.forecastService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, f)
}

// GetByID handles GET /api/forecasts/:id
func (h *ForecastHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	f, err := h.forecastService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// List handles GET /api/forecasts
func (h *ForecastHandler) List(c *gin.Context) {
	var filter analyticsapp.ForecastListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	forecasts, total, err := h.forecastService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, forecasts, total)
}

// Update handles PUT /api/forecasts/:id
func (h *ForecastHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req analyticsapp.UpdateForecastRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.forecastService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Delete handles DELETE /api/forecasts/:id
func (h *ForecastHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.forecastService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "Forecast")
}

// AnalyticsHandler handles period summary endpoints
type AnalyticsHandler struct {
	BaseHandler
	analyticsService *analyticsapp.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(base BaseHandler, analyticsService *analyticsapp.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{BaseHandler: base, analyticsService: analyticsService}
}

// Create handles POST /api/analytics
func (h *AnalyticsHandler) Create(c *gin.Context) {
	var req analyticsapp.CreateAnalyticsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.analyticsService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// Compute handles POST /api/analytics/compute
func (h *AnalyticsHandler) Compute(c *gin.Context) {
	var req analyticsapp.ComputeAnalyticsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.analyticsService.Compute(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// GetByID handles GET /api/analytics/:id
func (h *AnalyticsHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	a, err := h.analyticsService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// List handles GET /api/analytics
func (h *AnalyticsHandler) List(c *gin.Context) {
	var filter analyticsapp.AnalyticsListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	rows, total, err := h.analyticsService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, rows, total)
}

// Update handles PUT /api/analytics/:id
func (h *AnalyticsHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req analyticsapp.UpdateAnalyticsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.analyticsService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Delete handles DELETE /api/analytics/:id
func (h *AnalyticsHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.analyticsService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "Analytics")
}
