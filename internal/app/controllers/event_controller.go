package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/services"
	"github.com/yigit/campusblog/internal/middleware"
)

// EventController handles event-related operations
type EventController struct {
	eventService services.EventService
	logger       zerolog.Logger
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService, logger zerolog.Logger) *EventController {
	return &EventController{
		eventService: eventService,
		logger:       logger,
	}
}

// ListEvents lists events soonest first
// @Summary List events
// @Tags events
// @Produce json
// @Param search query string false "Search in title, description, location or host name"
// @Param category query string false "Exact category, case-insensitive"
// @Success 200 {object} dto.APIResponse{data=[]models.Event} "Events retrieved successfully"
// @Router /event [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	var filter dto.EventFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	events, err := c.eventService.ListEvents(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(events))
}

// ListEventsByUser lists the events hosted by one user
// @Summary List events by host
// @Tags events
// @Produce json
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.Event} "Events retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /event/user/{id} [get]
func (c *EventController) ListEventsByUser(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	events, err := c.eventService.ListEventsByHost(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(events))
}

// CreateEvent creates an event hosted by the caller
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=models.Event} "Event created"
// @Failure 400 {object} dto.ErrorResponse "Validation error or end date before start date"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /event [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	var req dto.CreateEventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	event, err := c.eventService.CreateEvent(ctx.Request.Context(), middleware.CurrentUser(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(event))
}

// GetEvent returns an event with its attendees
// @Summary Get event
// @Tags events
// @Produce json
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event} "Event retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /event/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.GetEvent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// UpdateEvent edits an event
// @Summary Update event
// @Description Host or administrator only
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Param request body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Event} "Event updated"
// @Failure 400 {object} dto.ErrorResponse "Validation error or end date before start date"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /event/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	event, err := c.eventService.UpdateEvent(ctx.Request.Context(), middleware.CurrentUser(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// DeleteEvent removes an event and its registrations
// @Summary Delete event
// @Description Host or administrator only
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=string} "Event deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /event/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.eventService.DeleteEvent(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Event deleted successfully"))
}

// Register registers the caller for an event
// @Summary Register for event
// @Description Registering twice has no further effect
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event} "Registered"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /event/register/{id} [post]
func (c *EventController) Register(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.Register(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// Unregister removes the caller from an event's attendees
// @Summary Unregister from event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Event} "Unregistered"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /event/register/{id} [delete]
func (c *EventController) Unregister(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.Unregister(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// GetAttendees lists the users registered for an event
// @Summary List attendees
// @Tags events
// @Produce json
// @Param id path int true "Event ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.User} "Attendees retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /event/{id}/attendees [get]
func (c *EventController) GetAttendees(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	users, err := c.eventService.Attendees(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}
