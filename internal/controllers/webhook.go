package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"payment-notifier/config"
	"payment-notifier/internal/models"
	"payment-notifier/internal/payments"
	"payment-notifier/internal/websocket"
)

// Stripe event bodies are a few KB; cap reads regardless.
const maxPayloadBytes = 1 << 20

type WebhookController struct {
	receiver *payments.Receiver
	hub      *websocket.Hub
	metrics  *config.Metrics
}

func NewWebhookController(receiver *payments.Receiver, hub *websocket.Hub, metrics *config.Metrics) *WebhookController {
	return &WebhookController{receiver: receiver, hub: hub, metrics: metrics}
}

// HandleWebhook accepts a signed Stripe event and relays recognized event
// types to all connected websocket clients. Stripe delivers at least once
// and does not deduplicate; a replayed delivery is relayed again.
func (c *WebhookController) HandleWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxPayloadBytes))
	if err != nil {
		config.RecordWebhookEvent(c.metrics, "unreadable")
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "could not read request body"})
		return
	}

	event, err := c.receiver.Parse(payload, ctx.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUnrecognizedEvent):
			// Ack so Stripe stops retrying a type we never relay.
			config.RecordWebhookEvent(c.metrics, "ignored")
			ctx.JSON(http.StatusOK, gin.H{"status": "ignored"})
		case errors.Is(err, payments.ErrSignatureInvalid):
			config.RecordWebhookEvent(c.metrics, "signature_invalid")
			log.Error().Err(err).Msg("Invalid webhook signature")
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid signature"})
		default:
			config.RecordWebhookEvent(c.metrics, "malformed")
			log.Error().Err(err).Msg("Invalid webhook payload")
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid payload"})
		}
		return
	}

	log.Info().
		Str("type", event.Type).
		Str("event_id", event.ID).
		Int64("amount", event.Amount).
		Str("currency", event.Currency).
		Msg("Relaying payment event")

	c.hub.Publish(event)
	config.RecordWebhookEvent(c.metrics, "relayed")
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
