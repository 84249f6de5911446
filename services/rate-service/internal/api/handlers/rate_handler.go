package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/courier-rates/shared/pkg/logging"
	"github.com/wms-platform/courier-rates/shared/pkg/middleware"

	"github.com/wms-platform/courier-rates/services/rate-service/internal/application"
	"github.com/wms-platform/courier-rates/services/rate-service/internal/domain"
)

// RateHandler handles HTTP requests for courier rates and rate sessions
type RateHandler struct {
	service *application.RateSelectionService
	logger  *logging.Logger
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(service *application.RateSelectionService, logger *logging.Logger) *RateHandler {
	middleware.InitValidator()

	return &RateHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers rate routes on the router
func (h *RateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rates", h.QuoteRates)

	sessions := router.Group("/rate-sessions")
	{
		sessions.POST("", h.OpenSession)
		sessions.GET("/:sessionId", h.GetSession)
		sessions.DELETE("/:sessionId", h.DismissSession)
		sessions.POST("/:sessionId/refetch", h.RefetchRates)
		sessions.POST("/:sessionId/sort", h.ToggleSort)
		sessions.POST("/:sessionId/selection", h.SelectOffer)
		sessions.POST("/:sessionId/submit", h.SubmitSelection)
		sessions.GET("/:sessionId/submission", h.GetSubmission)
	}
}

type rateQueryParams struct {
	Origin      string  `form:"origin" binding:"required,pincode"`
	Destination string  `form:"destination" binding:"required,pincode"`
	Weight      float64 `form:"weight" binding:"required,gt=0"`
	COD         bool    `form:"cod"`
	Sort        string  `form:"sort" binding:"omitempty,sort_field"`
	Direction   string  `form:"direction" binding:"omitempty,sort_dir"`
}

type rateQueryRequest struct {
	OriginPincode      string  `json:"originPincode" binding:"required,pincode"`
	DestinationPincode string  `json:"destinationPincode" binding:"required,pincode"`
	WeightKg           float64 `json:"weightKg" binding:"required,gt=0"`
	IsCOD              bool    `json:"isCOD"`
}

func (r rateQueryRequest) toDomain() domain.RateQuery {
	return domain.RateQuery{
		OriginPincode:      r.OriginPincode,
		DestinationPincode: r.DestinationPincode,
		WeightKg:           r.WeightKg,
		IsCOD:              r.IsCOD,
	}
}

// QuoteRates handles GET /api/v1/rates
func (h *RateHandler) QuoteRates(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var params rateQueryParams
	if appErr := middleware.BindQueryAndValidate(c, &params); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rate.origin":      params.Origin,
		"rate.destination": params.Destination,
	})

	result, err := h.service.Quote(c.Request.Context(), application.QuoteRatesQuery{
		Query: domain.RateQuery{
			OriginPincode:      params.Origin,
			DestinationPincode: params.Destination,
			WeightKg:           params.Weight,
			IsCOD:              params.COD,
		},
		Field:     params.Sort,
		Direction: params.Direction,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// OpenSession handles POST /api/v1/rate-sessions
func (h *RateHandler) OpenSession(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		rateQueryRequest

		Surface   string `json:"surface" binding:"required,surface"`
		Sort      string `json:"sort" binding:"omitempty,sort_field"`
		Direction string `json:"direction" binding:"omitempty,sort_dir"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rate.surface": req.Surface,
	})

	result, err := h.service.OpenSession(c.Request.Context(), application.OpenSessionCommand{
		Surface:   req.Surface,
		Query:     req.toDomain(),
		Field:     req.Sort,
		Direction: req.Direction,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// GetSession handles GET /api/v1/rate-sessions/:sessionId
func (h *RateHandler) GetSession(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.GetSession(c.Request.Context(), application.GetSessionQuery{
		SessionID: c.Param("sessionId"),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RefetchRates handles POST /api/v1/rate-sessions/:sessionId/refetch
func (h *RateHandler) RefetchRates(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	sessionID := c.Param("sessionId")

	var req rateQueryRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rate.session_id": sessionID,
	})

	result, err := h.service.Refetch(c.Request.Context(), application.RefetchRatesCommand{
		SessionID: sessionID,
		Query:     req.toDomain(),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ToggleSort handles POST /api/v1/rate-sessions/:sessionId/sort
func (h *RateHandler) ToggleSort(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Field string `json:"field" binding:"required,sort_field"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.ToggleSort(c.Request.Context(), application.ToggleSortCommand{
		SessionID: c.Param("sessionId"),
		Field:     req.Field,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SelectOffer handles POST /api/v1/rate-sessions/:sessionId/selection
func (h *RateHandler) SelectOffer(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	sessionID := c.Param("sessionId")

	var req struct {
		CourierID string `json:"courierId" binding:"required"`
		Mode      string `json:"mode" binding:"required"`
	}
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rate.session_id": sessionID,
		"rate.courier_id": req.CourierID,
	})

	result, err := h.service.SelectOffer(c.Request.Context(), application.SelectOfferCommand{
		SessionID: sessionID,
		CourierID: req.CourierID,
		Mode:      req.Mode,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SubmitSelection handles POST /api/v1/rate-sessions/:sessionId/submit
func (h *RateHandler) SubmitSelection(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)
	sessionID := c.Param("sessionId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rate.session_id": sessionID,
	})

	result, err := h.service.Submit(c.Request.Context(), application.SubmitSelectionCommand{
		SessionID: sessionID,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetSubmission handles GET /api/v1/rate-sessions/:sessionId/submission
func (h *RateHandler) GetSubmission(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.GetSubmission(c.Request.Context(), application.GetSubmissionQuery{
		SessionID: c.Param("sessionId"),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DismissSession handles DELETE /api/v1/rate-sessions/:sessionId
func (h *RateHandler) DismissSession(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.service.Dismiss(c.Request.Context(), application.DismissSessionCommand{
		SessionID: c.Param("sessionId"),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
