package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/service"
)

type ClientHandler struct {
	tickets *service.Tickets
	log     logging.Logger
}

func NewClientHandler(tickets *service.Tickets, log logging.Logger) *ClientHandler {
	return &ClientHandler{tickets: tickets, log: log}
}

type createClientRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"omitempty,email"`
	Company string `json:"company" binding:"max=255"`
	Phone   string `json:"phone" binding:"max=32"`
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	cl, err := h.tickets.AddClient(c.Request.Context(), model.NewClient(req.Name, req.Email, req.Company, req.Phone))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cl)
}

// List returns every client with its ticket counts.
func (h *ClientHandler) List(c *gin.Context) {
	cards, err := h.tickets.Clients(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": cards, "total": len(cards)})
}

func (h *ClientHandler) Get(c *gin.Context) {
	card, err := h.tickets.Client(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, card)
}
