package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"wellbook/internal/domain"
)

func TestPaymentHandler_status(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "bookingID", Value: "BK123"}}
	c.Request = httptest.NewRequest("GET", "/payment-status/BK123", nil)

	doc := &domain.PaymentStatusDoc{
		Status:        domain.PaymentStatusPaid,
		TransactionID: "T1",
		Amount:        5000,
		Timestamp:     time.Now(),
	}

	mockService.On("PaymentStatus", c.Request.Context(), "BK123").Return(doc, nil)

	handler.status(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)
	assert.Contains(t, w.Body.String(), `"transactionId":"T1"`)

	mockService.AssertExpectations(t)
}

func TestPaymentHandler_status_notFound(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "bookingID", Value: "missing"}}
	c.Request = httptest.NewRequest("GET", "/payment-status/missing", nil)

	mockService.On("PaymentStatus", c.Request.Context(), "missing").Return(nil, domain.ErrBookingNotFound)

	handler.status(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
