package transport

import (
	"fmt"
	"net/http"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
	"github.com/ds124wfegd/eventwaitlist/internal/service"

	"github.com/gin-gonic/gin"
)

type WaitlistHandler struct {
	waitlistService service.WaitlistService
}

func NewWaitlistHandler(waitlistService service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlistService: waitlistService}
}

func (h *WaitlistHandler) Join(c *gin.Context) {
	var req service.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}
	req.EventID = c.Param("eventId")

	result, err := h.waitlistService.Join(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"position":     result.Position,
		"totalWaiting": result.TotalWaiting,
		"message":      fmt.Sprintf("You are #%d on the waitlist", result.Position),
	})
}

func (h *WaitlistHandler) Leave(c *gin.Context) {
	result, err := h.waitlistService.Leave(c.Request.Context(), c.Param("eventId"), c.Query("email"))
	if err != nil {
		handleError(c, err)
		return
	}
	if !result.Success {
		handleError(c, entity.ErrNotOnWaitlist)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"totalWaiting": result.TotalWaiting,
		"message":      "Successfully removed from the waitlist",
	})
}

func (h *WaitlistHandler) Status(c *gin.Context) {
	status, err := h.waitlistService.Status(c.Request.Context(), c.Param("eventId"), c.Query("email"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *WaitlistHandler) Size(c *gin.Context) {
	eventID := c.Param("eventId")
	size, err := h.waitlistService.Size(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eventId":      eventID,
		"totalWaiting": size,
	})
}

// Dump returns every queue; admin diagnostics only.
func (h *WaitlistHandler) Dump(c *gin.Context) {
	table, err := h.waitlistService.Dump(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, table)
}
