package experiences

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/tour-guide/internal/models"
	"github.com/example/tour-guide/internal/observability"
)

// PaymentClient is the subset of the payments wrapper the checkout flow
// needs; satisfied by payments.StripeClient.
type PaymentClient interface {
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID string) error
}

// CheckoutService runs the purchase lifecycle: hold funds at checkout,
// capture on completion, release on cancellation.
type CheckoutService struct {
	Store    Store
	Payments PaymentClient
}

func (c *CheckoutService) Checkout(ctx context.Context, experienceID, userID string) (*models.Purchase, error) {
	e, err := c.Store.Get(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	piID, err := c.Payments.Hold(ctx, e.PriceCents, e.Currency, userID)
	if err != nil {
		return nil, fmt.Errorf("hold payment: %w", err)
	}
	p := &models.Purchase{
		ID:              uuid.NewString(),
		ExperienceID:    experienceID,
		UserID:          userID,
		PaymentIntentID: piID,
		Status:          "held",
		CreatedAt:       time.Now(),
	}
	if err := c.Store.SavePurchase(ctx, p); err != nil {
		// funds held but record lost; release the hold
		_ = c.Payments.Cancel(ctx, piID)
		return nil, err
	}
	observability.CheckoutsTotal.Inc()
	return p, nil
}

func (c *CheckoutService) Complete(ctx context.Context, purchaseID string) error {
	p, err := c.Store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}
	if err := c.Payments.Capture(ctx, p.PaymentIntentID); err != nil {
		return fmt.Errorf("capture payment: %w", err)
	}
	return c.Store.UpdatePurchaseStatus(ctx, purchaseID, "captured")
}

func (c *CheckoutService) Cancel(ctx context.Context, purchaseID string) error {
	p, err := c.Store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}
	if err := c.Payments.Cancel(ctx, p.PaymentIntentID); err != nil {
		return fmt.Errorf("cancel payment: %w", err)
	}
	return c.Store.UpdatePurchaseStatus(ctx, purchaseID, "canceled")
}
