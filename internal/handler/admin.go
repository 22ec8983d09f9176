package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/service"
)

// AdminHandler serves actions spanning both desks.
type AdminHandler struct {
	requests *service.Requests
	tickets  *service.Tickets
	log      logging.Logger
}

func NewAdminHandler(requests *service.Requests, tickets *service.Tickets, log logging.Logger) *AdminHandler {
	return &AdminHandler{requests: requests, tickets: tickets, log: log}
}

// Reload resynchronizes both collections with the store.
func (h *AdminHandler) Reload(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.requests.Load(ctx); err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.tickets.Load(ctx); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requests": len(h.requests.Records()),
		"tickets":  len(h.tickets.Records()),
	})
}

func (h *AdminHandler) Overview(c *gin.Context) {
	o, err := h.tickets.Overview(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overview": o, "unread_requests": h.requests.Summary().Unread})
}
