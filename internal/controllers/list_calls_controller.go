package controllers

import (
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/soapgate/internal/services"

	"github.com/gin-gonic/gin"
)

const maxListLimit = 500

type listCallsController struct{ svc services.CallService }

func NewListCallsController(svc services.CallService) *listCallsController {
	return &listCallsController{svc: svc}
}

func (h *listCallsController) Handle(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}
	method := c.Param("method")
	calls, err := h.svc.ListByMethod(c.Request.Context(), method, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"method": method, "count": len(calls), "calls": calls})
}
