package payments

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79/webhook"

	"payment-notifier/internal/models"
)

var (
	// ErrSignatureInvalid means the Stripe-Signature header did not verify
	// against the webhook signing secret.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrMalformedPayload means the body was signed correctly but could not
	// be decoded into a payment event.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrUnrecognizedEvent means the event verified and decoded but its type
	// is not one we relay. Callers should ack the delivery so Stripe stops
	// retrying it.
	ErrUnrecognizedEvent = errors.New("unrecognized event type")
)

// Receiver verifies and decodes Stripe webhook deliveries.
type Receiver struct {
	secret string
}

func NewReceiver(secret string) *Receiver {
	return &Receiver{secret: secret}
}

// Parse checks the signature header against the signing secret and maps the
// payload onto a relay Event. Signature verification happens before any
// decoding, so a tampered body of any shape fails with ErrSignatureInvalid.
func (r *Receiver) Parse(payload []byte, sigHeader string) (*models.Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, sigHeader, r.secret, webhook.ConstructEventOptions{
		// Webhook endpoints pin their own API version in the Stripe
		// dashboard; it rarely matches the SDK's pinned version.
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformedPayload
		}
	}

	if stripeEvent.Data == nil || stripeEvent.Data.Object == nil {
		return nil, ErrMalformedPayload
	}

	switch stripeEvent.Type {
	case "invoice.payment_succeeded":
		return eventFromObject(models.EventPaymentSucceeded, stripeEvent.Data.Object, "amount_paid")
	case "charge.refunded":
		return eventFromObject(models.EventRefundIssued, stripeEvent.Data.Object, "amount_refunded")
	default:
		log.Info().Str("stripe_type", string(stripeEvent.Type)).Str("event_id", stripeEvent.ID).Msg("Ignoring unhandled event type")
		return nil, ErrUnrecognizedEvent
	}
}

// eventFromObject pulls the relayed fields out of the event's data object.
// Stripe decodes the object into map[string]interface{}, so numbers arrive
// as float64; amounts are whole minor units and convert losslessly.
func eventFromObject(eventType string, object map[string]interface{}, amountKey string) (*models.Event, error) {
	id, ok := object["id"].(string)
	if !ok || id == "" {
		return nil, ErrMalformedPayload
	}
	amount, ok := object[amountKey].(float64)
	if !ok {
		return nil, ErrMalformedPayload
	}
	currency, ok := object["currency"].(string)
	if !ok {
		return nil, ErrMalformedPayload
	}

	return &models.Event{
		Type:     eventType,
		ID:       id,
		Amount:   int64(amount),
		Currency: currency,
	}, nil
}
