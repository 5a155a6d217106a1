package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/soapgate/internal/repository"
	"github.com/osvaldoandrade/soapgate/internal/services"

	"github.com/gin-gonic/gin"
)

type getCallController struct{ svc services.CallService }

func NewGetCallController(svc services.CallService) *getCallController {
	return &getCallController{svc: svc}
}

func (h *getCallController) Handle(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
