package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/ctxmeta"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// Проверка, что StripeProcessor удовлетворяет интерфейсу PaymentProcessor.
var _ ports.PaymentProcessor = (*StripeProcessor)(nil)

// ErrPaymentNotCompleted — платёж создан, но не перешёл в succeeded.
var ErrPaymentNotCompleted = errors.New("payment not completed")

// StripeConfig — параметры списаний через Stripe PaymentIntents.
type StripeConfig struct {
	SecretKey     string // sk_... ; выставляется в stripe.Key
	Currency      string // ISO-код, по умолчанию gbp
	PaymentMethod string // сохранённый метод оплаты (pm_...), по умолчанию pm_card_visa
}

type createIntentFunc func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

// StripeProcessor — PaymentProcessor поверх Stripe: создаёт и сразу подтверждает PaymentIntent.
type StripeProcessor struct {
	currency      string
	paymentMethod string
	create        createIntentFunc
}

// NewStripeProcessor — выставляет глобальный ключ Stripe и возвращает процессор.
func NewStripeProcessor(cfg StripeConfig) (*StripeProcessor, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	stripe.Key = cfg.SecretKey
	return newStripeProcessor(cfg, paymentintent.New), nil
}

func newStripeProcessor(cfg StripeConfig, create createIntentFunc) *StripeProcessor {
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyGBP)
	}
	method := cfg.PaymentMethod
	if method == "" {
		method = "pm_card_visa"
	}
	return &StripeProcessor{currency: currency, paymentMethod: method, create: create}
}

// Charge — amount в минимальных единицах валюты (как и в таблице цен).
func (p *StripeProcessor) Charge(ctx context.Context, accountID int64, amount int) error {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(amount)),
		Currency:      stripe.String(p.currency),
		PaymentMethod: stripe.String(p.paymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
		Description: stripe.String(fmt.Sprintf("Tickets for account %d", accountID)),
	}
	params.Context = ctx
	params.AddMetadata("account_id", strconv.FormatInt(accountID, 10))
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		params.AddMetadata("request_id", rid)
	}
	if key, ok := ctxmeta.IdempotencyKeyFromContext(ctx); ok {
		params.SetIdempotencyKey(key)
	}

	intent, err := p.create(params)
	if err != nil {
		return fmt.Errorf("stripe payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: intent=%s status=%s", ErrPaymentNotCompleted, intent.ID, intent.Status)
	}
	return nil
}
