package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/service"
)

// RequestHandler serves the admin table of contact requests.
type RequestHandler struct {
	requests *service.Requests
	log      logging.Logger
}

func NewRequestHandler(requests *service.Requests, log logging.Logger) *RequestHandler {
	return &RequestHandler{requests: requests, log: log}
}

// List pages through the store directly, newest first.
func (h *RequestHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	page, err := h.requests.ListStored(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": page.Records, "total": page.Total})
}

// View filters the session collection by status and search text.
func (h *RequestHandler) View(c *gin.Context) {
	items, err := h.requests.Search(c.Query("status"), c.Query("q"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": items, "total": len(items)})
}

func (h *RequestHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.requests.Summary())
}

// Get opens the detail view; a new request becomes read.
func (h *RequestHandler) Get(c *gin.Context) {
	r, err := h.requests.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.requests.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": out.Records[0], "notice": out.Notice})
}

type bulkStatusRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1"`
	Status string   `json:"status" binding:"required"`
}

func (h *RequestHandler) BulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.requests.BulkSetStatus(c.Request.Context(), req.IDs, req.Status)
	code, body := http.StatusOK, gin.H{}
	if err != nil {
		if len(out.Failed) == 0 {
			writeError(c, h.log, err)
			return
		}
		code, body = errorResponse(c, h.log, err)
	}
	body["success"] = len(out.Failed) == 0
	body["updated"] = out.Records
	body["failed"] = out.Failed
	body["notice"] = out.Notice
	c.JSON(code, body)
}

type notesRequest struct {
	Notes string `json:"notes" binding:"max=10000"`
}

func (h *RequestHandler) SaveNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	r, err := h.requests.SaveNotes(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": r})
}
