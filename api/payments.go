package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellbook/internal/domain"
	"wellbook/internal/service/payment"
)

type PaymentHandler struct {
	service payment.UseCase
}

func NewPaymentHandler(service payment.UseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.GET("/payment-status/:bookingID", h.status)
}

func (h *PaymentHandler) status(c *gin.Context) {
	bookingID := c.Param("bookingID")
	doc, err := h.service.PaymentStatus(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, doc)
}
