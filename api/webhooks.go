package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellbook/internal/service/payment"
)

type WebhookHandler struct {
	service payment.UseCase
}

func NewWebhookHandler(service payment.UseCase) *WebhookHandler {
	return &WebhookHandler{service: service}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/payment", h.ingest)
}

// ingest implements the provider contract: 200 {success:true} on accepted
// deliveries including idempotent re-delivery, 400 on signature failure, 500
// on processing errors (the provider retries on 5xx).
func (h *WebhookHandler) ingest(c *gin.Context) {
	var payload payment.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.service.Ingest(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
