package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellbook/internal/domain"
	"wellbook/internal/service/payment"
)

type BookingHandler struct {
	service payment.UseCase
}

type createBookingRequest struct {
	ProfessionalID int64     `json:"professional_id"`
	Email          string    `json:"email"`
	AmountCents    int64     `json:"amount_cents"`
	ScheduledAt    time.Time `json:"scheduled_at"`
}

type bookingResponse struct {
	BookingID      string `json:"booking_id"`
	ProfessionalID int64  `json:"professional_id"`
	Email          string `json:"email"`
	AmountCents    int64  `json:"amount_cents"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status"`
	ScheduledAt    string `json:"scheduled_at"`
}

func NewBookingHandler(service payment.UseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:bookingID", h.get)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), payment.CreateBookingInput{
		ProfessionalID: req.ProfessionalID,
		Email:          req.Email,
		AmountCents:    req.AmountCents,
		ScheduledAt:    req.ScheduledAt,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID:      b.BookingID,
		ProfessionalID: b.ProfessionalID,
		Email:          b.Email,
		AmountCents:    b.AmountCents,
		Status:         string(b.Status),
		PaymentStatus:  string(b.PaymentStatus),
		ScheduledAt:    b.ScheduledAt.Format(time.RFC3339),
	}
}
