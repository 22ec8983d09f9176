package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/service"
)

// maxAttachmentSize bounds a single uploaded file.
const maxAttachmentSize = 25 << 20

type TicketHandler struct {
	tickets *service.Tickets
	log     logging.Logger
}

func NewTicketHandler(tickets *service.Tickets, log logging.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, log: log}
}

type createTicketRequest struct {
	ClientID     string   `json:"client_id" binding:"max=36"`
	Title        string   `json:"title" binding:"required,max=255"`
	Type         string   `json:"type" binding:"required,oneof=website mobile-app ai-automation chatbot ecommerce other"`
	Description  string   `json:"description"`
	Budget       string   `json:"budget" binding:"max=32"`
	Priority     string   `json:"priority" binding:"omitempty,oneof=normal urgent"`
	DeliveryDate string   `json:"delivery_date" binding:"omitempty,datetime=2006-01-02"`
	Files        []string `json:"files" binding:"omitempty,dive,max=255"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	t, err := h.tickets.Create(c.Request.Context(), model.Ticket{
		ClientID:     req.ClientID,
		Title:        req.Title,
		Type:         model.ProjectType(req.Type),
		Description:  req.Description,
		Budget:       req.Budget,
		Priority:     model.Priority(req.Priority),
		DeliveryDate: req.DeliveryDate,
		Files:        req.Files,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, ok := h.tickets.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": t, "budget": model.ParseBudget(t.Budget)})
}

// List filters the board by status ("all" for every status) and text.
func (h *TicketHandler) List(c *gin.Context) {
	items, err := h.tickets.Search(c.Query("status"), c.Query("q"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": items, "total": len(items)})
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.tickets.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": out.Records[0], "notice": out.Notice})
}

func (h *TicketHandler) Advance(c *gin.Context) {
	out, err := h.tickets.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": out.Records[0], "notice": out.Notice})
}

func (h *TicketHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.tickets.Summary(), "months": record.MonthLabels})
}

// Attach stores the multipart "file" field and records it on the ticket.
func (h *TicketHandler) Attach(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAttachmentSize)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "field": "file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file", "field": "file"})
		return
	}
	defer f.Close()

	t, err := h.tickets.Attach(c.Request.Context(), c.Param("id"), fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": t})
}
