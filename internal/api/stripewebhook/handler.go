package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"subscription-app/internal/billing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const maxBodyBytes = 65536

var webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stripe_webhook_events_total",
	Help: "Stripe webhook deliveries by event type and result.",
}, []string{"event_type", "result"})

type Verifier interface {
	Verify(payload []byte, header string) (billing.Event, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, event billing.Event) (billing.Outcome, error)
}

type Handler struct {
	verifier   Verifier
	reconciler Reconciler
	logger     *zap.Logger
}

func NewHandler(verifier Verifier, reconciler Reconciler, logger *zap.Logger) *Handler {
	return &Handler{verifier: verifier, reconciler: reconciler, logger: logger}
}

// StripeWebhook answers 200 once an event is reconciled, acknowledged as a duplicate
// or ignored, and 400 otherwise so the provider redelivers.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		webhookEvents.WithLabelValues("unknown", "unreadable_body").Inc()
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			h.logger.Error("webhook event could not be decoded", zap.Error(err))
			webhookEvents.WithLabelValues("unknown", string(billing.KindMalformedEvent)).Inc()
			c.String(http.StatusBadRequest, "Webhook Error")
			return
		}
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		webhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), event)
	if err != nil {
		kind := billing.KindOf(err)
		h.logger.Error("webhook event failed",
			zap.Error(err),
			zap.String("event_id", event.ID()),
			zap.String("event_type", event.Type()),
			zap.String("failure_kind", string(kind)),
		)
		webhookEvents.WithLabelValues(event.Type(), string(kind)).Inc()
		c.String(http.StatusBadRequest, "Webhook Error")
		return
	}

	h.logger.Info("webhook event handled",
		zap.String("event_id", event.ID()),
		zap.String("event_type", event.Type()),
		zap.String("outcome", string(outcome)),
	)
	webhookEvents.WithLabelValues(event.Type(), string(outcome)).Inc()
	c.String(http.StatusOK, "Webhook received")
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
