package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/soapgate/internal/services"

	"github.com/gin-gonic/gin"
)

type invokeCallController struct{ svc services.CallService }

func NewInvokeCallController(svc services.CallService) *invokeCallController {
	return &invokeCallController{svc: svc}
}

// Handle answers 200 for every normalized outcome, failed validations
// included. 502 means the handler escalated; the record is still returned.
func (h *invokeCallController) Handle(c *gin.Context) {
	var req services.InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	rec, err := h.svc.Invoke(c.Request.Context(), req)
	if errors.Is(err, services.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "call": rec})
		return
	}
	c.JSON(http.StatusOK, rec)
}
