package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams reads limit and offset, ignoring malformed or negative values.
func pageParams(c *gin.Context) (limit, offset int) {
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}
