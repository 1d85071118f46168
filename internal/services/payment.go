package services

import (
	"context"
	"errors"
	"log"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const ChargeDescription = "Courier Service Payment"

type stripeCustomers interface {
	New(params *stripe.CustomerParams) (*stripe.Customer, error)
}

type stripeCharges interface {
	New(params *stripe.ChargeParams) (*stripe.Charge, error)
}

// StripeGateway charges cards through the Stripe API.
type StripeGateway struct {
	customers stripeCustomers
	charges   stripeCharges
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{customers: sc.Customers, charges: sc.Charges}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, cardToken, idempotencyKey string) (string, error) {
	params := &stripe.CustomerParams{
		Email:  stripe.String(email),
		Source: stripe.String(cardToken),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	cust, err := g.customers.New(params)
	if err != nil {
		return "", gatewayError(err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(req.Currency),
		Customer:    stripe.String(req.CustomerID),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	ch, err := g.charges.New(params)
	if err != nil {
		return nil, gatewayError(err)
	}
	if !ch.Paid {
		return nil, &GatewayError{Message: "Your card was not charged. Please try again."}
	}

	log.Printf("Stripe charge %s succeeded for %d minor units", ch.ID, req.AmountMinor)
	return &ChargeResult{ID: ch.ID, Paid: ch.Paid}, nil
}

// gatewayError keeps Stripe's user-facing message and hides transport detail.
func gatewayError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return &GatewayError{Message: stripeErr.Msg, Err: err}
	}
	return &GatewayError{Message: "The payment could not be processed. Please try again.", Err: err}
}
