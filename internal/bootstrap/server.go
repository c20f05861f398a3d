package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellbook/api"
	"wellbook/config"
	"wellbook/internal/service/payment"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, paymentSvc payment.UseCase) error {
	router := gin.Default()

	api.NewBookingHandler(paymentSvc).Register(router.Group("/bookings"))
	api.NewPaymentHandler(paymentSvc).Register(router.Group("/"))
	api.NewWebhookHandler(paymentSvc).Register(router.Group("/webhooks"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
