package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/soapgate/internal/services"

	"github.com/gin-gonic/gin"
)

type purgeCallsController struct{ svc services.CallService }

func NewPurgeCallsController(svc services.CallService) *purgeCallsController {
	return &purgeCallsController{svc: svc}
}

type purgeReq struct {
	Limit int `json:"limit,omitempty"` // default 1000
}

func (h *purgeCallsController) Handle(c *gin.Context) {
	var req purgeReq
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	deleted, err := h.svc.Purge(c.Request.Context(), req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "limit": req.Limit})
}
