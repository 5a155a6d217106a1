package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/soapgate/internal/services"

	"github.com/gin-gonic/gin"
)

type healthController struct{ svc services.CallService }

func NewHealthController(svc services.CallService) *healthController {
	return &healthController{svc: svc}
}

func (h *healthController) Handle(c *gin.Context) {
	health := h.svc.Health(c.Request.Context())
	status := http.StatusOK
	if !health.Connected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
