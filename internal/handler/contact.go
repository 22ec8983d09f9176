package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/service"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
	requests *service.Requests
	log      logging.Logger
}

func NewContactHandler(requests *service.Requests, log logging.Logger) *ContactHandler {
	return &ContactHandler{requests: requests, log: log}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Submit handles POST /api/contact. Field rules are checked by the model so
// that every rejection names its field.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	r, err := h.requests.Submit(c.Request.Context(), req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.log.Info(c.Request.Context(), "contact request received", "id", r.ID, "email", r.Email)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "request received",
		"requestId": r.ID,
	})
}
