package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
	"github.com/ds124wfegd/eventwaitlist/internal/service"
	"github.com/ds124wfegd/eventwaitlist/pkg/eventsapi"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) GetAllEvents(c *gin.Context) {
	filter := eventsapi.ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		LastKey:  c.Query("lastKey"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid limit")
			return
		}
		filter.Limit = limit
	}

	page, err := h.eventService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *EventHandler) Register(c *gin.Context) {
	var req entity.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}

	result, err := h.eventService.Register(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
